package sanitize

import (
	"bytes"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	labelPolicyOnce sync.Once
	labelPolicy     *bluemonday.Policy

	markdownPolicyOnce sync.Once
	markdownPolicy     *bluemonday.Policy

	markdown = goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify))
)

// Label cleans option label markup, keeping inline formatting only.
func Label(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(labelSanitizer().Sanitize(trimmed))
}

// Markdown renders helper text to sanitised HTML.
func Markdown(src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(markdownSanitizer().Sanitize(buf.String())), nil
}

func labelSanitizer() *bluemonday.Policy {
	labelPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("b", "strong", "i", "em", "u", "small", "span", "br", "code", "mark")
		policy.AllowAttrs("class").OnElements("span")
		policy.AllowImages()
		policy.AllowAttrs("alt", "width", "height", "class").OnElements("img")
		labelPolicy = policy
	})
	return labelPolicy
}

func markdownSanitizer() *bluemonday.Policy {
	markdownPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		markdownPolicy = policy
	})
	return markdownPolicy
}
