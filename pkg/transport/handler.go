package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/SalvaTerol/filament/pkg/action"
	"github.com/SalvaTerol/filament/pkg/forms"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Issues any    `json:"issues,omitempty"`
}

type actionRequest struct {
	Data map[string]any `json:"data"`
}

type actionResponse struct {
	State map[string]any `json:"state"`
}

// maxActionBody bounds the JSON accepted by the action route.
const maxActionBody = 1 << 20

// Handler builds a net/http handler with default options plus any overrides.
func Handler(fns ...OptionFn) http.Handler {
	return NewHandler(fns...)
}

func NewHandler(fns ...OptionFn) http.Handler {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions builds the handler from a pre-constructed Options value.
// Routes are relative: mount the handler under a prefix with RegisterRoutes.
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	h := &handler{opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /options", h.guarded(h.options))
	mux.HandleFunc("GET /search", h.guarded(h.search))
	mux.HandleFunc("GET /labels", h.guarded(h.labels))
	mux.HandleFunc("GET /view", h.guarded(h.view))
	mux.HandleFunc("POST /actions", h.guarded(h.action))
	return mux
}

type handler struct {
	opts Options
}

type routeFunc func(w http.ResponseWriter, r *http.Request, form *forms.Form) error

func (h *handler) guarded(route routeFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.opts.Guard != nil {
			if err := h.opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}
		if h.opts.Factory == nil {
			writeError(w, StatusError{Code: http.StatusNotImplemented, Err: errors.New("transport: missing form factory")})
			return
		}
		form, err := h.opts.Factory(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := form.Fill(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		if err := route(w, r, form); err != nil {
			h.opts.Logger.DebugContext(r.Context(), "form request failed", "path", r.URL.Path, "error", err)
			writeError(w, err)
		}
	}
}

func (h *handler) selectField(r *http.Request, form *forms.Form) (*forms.Select, error) {
	path := r.URL.Query().Get(h.opts.FieldParam)
	if path == "" {
		return nil, StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("transport: missing %s parameter", h.opts.FieldParam)}
	}
	s, ok := form.Select(path)
	if !ok {
		return nil, StatusError{Code: http.StatusNotFound, Err: fmt.Errorf("transport: no select field %q", path)}
	}
	return s, nil
}

func (h *handler) options(w http.ResponseWriter, r *http.Request, form *forms.Form) error {
	s, err := h.selectField(r, form)
	if err != nil {
		return err
	}
	opts, err := s.GetOptionsForJS(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: opts})
	return nil
}

func (h *handler) search(w http.ResponseWriter, r *http.Request, form *forms.Form) error {
	s, err := h.selectField(r, form)
	if err != nil {
		return err
	}
	results, err := s.GetSearchResultsForJS(r.Context(), r.URL.Query().Get(h.opts.SearchParam))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: results})
	return nil
}

// labels resolves the values given as repeated value parameters, or the
// current state when none are given.
func (h *handler) labels(w http.ResponseWriter, r *http.Request, form *forms.Form) error {
	s, err := h.selectField(r, form)
	if err != nil {
		return err
	}
	if raw, ok := r.URL.Query()[h.opts.ValueParam]; ok {
		multiple, err := s.IsMultiple(r.Context())
		if err != nil {
			return err
		}
		switch {
		case multiple:
			values := make([]any, 0, len(raw))
			for _, v := range raw {
				values = append(values, v)
			}
			s.SetState(values)
		case len(raw) > 0:
			s.SetState(raw[0])
		}
	}
	labels, err := s.GetOptionLabelsForJS(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: labels})
	return nil
}

func (h *handler) view(w http.ResponseWriter, r *http.Request, form *forms.Form) error {
	views, err := form.View(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: h.opts.Widgets.Decorate(views)})
	return nil
}

func (h *handler) action(w http.ResponseWriter, r *http.Request, form *forms.Form) error {
	s, err := h.selectField(r, form)
	if err != nil {
		return err
	}
	name := r.URL.Query().Get(h.opts.ActionParam)
	if name == "" {
		return StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("transport: missing %s parameter", h.opts.ActionParam)}
	}
	var body actionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxActionBody)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("transport: decode action body: %w", err)}
	}
	if err := s.CallAction(r.Context(), name, body.Data); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: actionResponse{State: form.State()}})
	return nil
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	var validationErr *action.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Issues: validationErr.Result.Issues})
		return
	}
	code := http.StatusInternalServerError
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	if err == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}
