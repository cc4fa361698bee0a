package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// Question asks for free text.
type Question struct {
	Message  string
	Default  string
	Help     string
	Required bool
}

// Choice is one pickable option, keyed the way the select state is.
type Choice struct {
	Key   string
	Label string
}

// Pick asks for one choice, or any number of them when Multiple is set.
// Selected holds the keys preselected from the current state.
type Pick struct {
	Message  string
	Choices  []Choice
	Selected []string
	Multiple bool
	PageSize int
}

// Labels returns the choice labels in order.
func (p Pick) Labels() []string {
	labels := make([]string, len(p.Choices))
	for i, c := range p.Choices {
		labels[i] = c.Label
	}
	return labels
}

// Driver is the terminal seam. Tests script it; the CLI uses survey.
type Driver interface {
	Ask(ctx context.Context, q Question) (string, error)
	Pick(ctx context.Context, p Pick) ([]string, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
	Notify(ctx context.Context, message string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns the interactive driver writing notices to stdout.
func NewSurveyDriver() Driver {
	return &surveyDriver{out: os.Stdout}
}

func (d *surveyDriver) Ask(ctx context.Context, q Question) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var opts []survey.AskOpt
	if q.Required {
		opts = append(opts, survey.WithValidator(func(ans any) error {
			if s, _ := ans.(string); strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", q.Message)
			}
			return nil
		}))
	}
	var answer string
	err := survey.AskOne(&survey.Input{Message: q.Message, Default: q.Default, Help: q.Help}, &answer, opts...)
	return answer, surveyErr(err)
}

// Pick shows labels and maps the answer back to keys by position, so
// duplicate labels still resolve to distinct keys.
func (d *surveyDriver) Pick(ctx context.Context, p Pick) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	labels := p.Labels()
	selected := map[string]bool{}
	for _, key := range p.Selected {
		selected[key] = true
	}

	if p.Multiple {
		prompt := &survey.MultiSelect{Message: p.Message, Options: labels, PageSize: p.PageSize}
		var defaults []string
		for _, c := range p.Choices {
			if selected[c.Key] {
				defaults = append(defaults, c.Label)
			}
		}
		if len(defaults) > 0 {
			prompt.Default = defaults
		}
		var indices []int
		if err := survey.AskOne(prompt, &indices); err != nil {
			return nil, surveyErr(err)
		}
		keys := make([]string, 0, len(indices))
		for _, i := range indices {
			keys = append(keys, p.Choices[i].Key)
		}
		return keys, nil
	}

	prompt := &survey.Select{Message: p.Message, Options: labels, PageSize: p.PageSize}
	for _, c := range p.Choices {
		if selected[c.Key] {
			prompt.Default = c.Label
			break
		}
	}
	var index int
	if err := survey.AskOne(prompt, &index); err != nil {
		return nil, surveyErr(err)
	}
	return []string{p.Choices[index].Key}, nil
}

func (d *surveyDriver) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var ok bool
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &ok)
	return ok, surveyErr(err)
}

func (d *surveyDriver) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, message)
	return err
}

func surveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
