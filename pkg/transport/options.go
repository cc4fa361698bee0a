package transport

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/SalvaTerol/filament/pkg/forms"
	"github.com/SalvaTerol/filament/pkg/widgets"
)

// FormFactory builds the form a request operates on.
type FormFactory func(r *http.Request) (*forms.Form, error)

// GuardFunc rejects requests before the form is built.
type GuardFunc func(r *http.Request) error

// Options configures the handler.
type Options struct {
	RoutePath   string
	FieldParam  string
	SearchParam string
	ValueParam  string
	ActionParam string
	Guard       GuardFunc
	Factory     FormFactory
	Widgets     *widgets.Registry
	Logger      *slog.Logger
}

// OptionFn mutates Options.
type OptionFn func(*Options)

// DefaultOptions returns the defaults applied by NewOptions.
func DefaultOptions() Options {
	return Options{
		RoutePath:   "/api/forms",
		FieldParam:  "field",
		SearchParam: "q",
		ValueParam:  "value",
		ActionParam: "action",
	}
}

// NewOptions applies fns over the defaults and fills anything left empty.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api/forms"
	}
	if opts.FieldParam == "" {
		opts.FieldParam = "field"
	}
	if opts.SearchParam == "" {
		opts.SearchParam = "q"
	}
	if opts.ValueParam == "" {
		opts.ValueParam = "value"
	}
	if opts.ActionParam == "" {
		opts.ActionParam = "action"
	}
	if opts.Widgets == nil {
		opts.Widgets = widgets.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithFieldParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.FieldParam = name
	}
}

func WithSearchParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SearchParam = name
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithFactory(factory FormFactory) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Factory = factory
	}
}

func WithWidgets(reg *widgets.Registry) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Widgets = reg
	}
}

func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}
