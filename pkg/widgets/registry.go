package widgets

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/SalvaTerol/filament/pkg/forms"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetChips            = "chips"
	WidgetSearchableSelect = "searchable-select"
	WidgetToggle           = "toggle"
	WidgetNativeSelect     = "native-select"
)

// Matcher reports whether a widget suits the select.
type Matcher func(view forms.SelectView) bool

type rule struct {
	name     string
	priority int
	match    Matcher
}

// Registry picks the client widget for finalized selects. Rules are kept
// ordered by descending priority; equal priorities keep registration order.
// An empty registry never resolves a widget.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry returns a registry holding the built-in matchers.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a matcher under name. Blank names and nil matchers are
// ignored.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	name = strings.TrimSpace(name)
	if r == nil || matcher == nil || name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	at := sort.Search(len(r.rules), func(i int) bool {
		return r.rules[i].priority < priority
	})
	r.rules = slices.Insert(r.rules, at, rule{name: name, priority: priority, match: matcher})
}

// Resolve returns the widget for view. A widget already set on the view wins.
func (r *Registry) Resolve(view forms.SelectView) (string, bool) {
	if explicit := strings.TrimSpace(view.Widget); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.rules {
		if entry.match(view) {
			return entry.name, true
		}
	}
	return "", false
}

// Decorate sets the widget of every select view, descending into sections.
// Views are returned as new values; the input slice is left untouched.
func (r *Registry) Decorate(views []any) []any {
	if len(views) == 0 {
		return views
	}
	decorated := make([]any, len(views))
	for idx, view := range views {
		decorated[idx] = r.decorate(view)
	}
	return decorated
}

func (r *Registry) decorate(view any) any {
	switch v := view.(type) {
	case forms.SelectView:
		if widget, ok := r.Resolve(v); ok {
			v.Widget = widget
		}
		return v
	case forms.SectionView:
		v.Schema = r.Decorate(v.Schema)
		return v
	}
	return view
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetChips, 90, func(view forms.SelectView) bool {
		return view.Multiple
	})

	r.Register(WidgetSearchableSelect, 80, func(view forms.SelectView) bool {
		return view.Searchable || view.DynamicOptions
	})

	r.Register(WidgetToggle, 70, func(view forms.SelectView) bool {
		if len(view.Options) != 2 {
			return false
		}
		return view.Options[0].Value == "1" && view.Options[1].Value == "0"
	})

	r.Register(WidgetNativeSelect, 0, func(forms.SelectView) bool {
		return true
	})
}
