package forms

import "context"

// Section groups components under a heading.
type Section struct {
	heading     string
	description string
	columns     int
	collapsible bool
	collapsed   bool
	schema      []Component
}

// NewSection returns a section titled heading.
func NewSection(heading string) *Section {
	return &Section{heading: heading, columns: 1}
}

// Description sets the text under the heading.
func (s *Section) Description(text string) *Section {
	s.description = text
	return s
}

// Columns sets the grid width.
func (s *Section) Columns(n int) *Section {
	if n > 0 {
		s.columns = n
	}
	return s
}

// Collapsible lets the section fold; collapsed sets the initial state.
func (s *Section) Collapsible(collapsed bool) *Section {
	s.collapsible = true
	s.collapsed = collapsed
	return s
}

// Schema sets the child components.
func (s *Section) Schema(components ...Component) *Section {
	s.schema = append([]Component(nil), components...)
	return s
}

func (s *Section) bind(f *Form) (Component, error) {
	bound := *s
	children, err := f.bindAll(s.schema)
	if err != nil {
		return nil, err
	}
	bound.schema = children
	return &bound, nil
}

// SectionView is the renderer payload of a section.
type SectionView struct {
	Type        string `json:"type"`
	Heading     string `json:"heading"`
	Description string `json:"description,omitempty"`
	Columns     int    `json:"columns"`
	Collapsible bool   `json:"collapsible,omitempty"`
	Collapsed   bool   `json:"collapsed,omitempty"`
	Schema      []any  `json:"schema"`
}

func (s *Section) view(ctx context.Context) (any, error) {
	children, err := viewAll(ctx, s.schema)
	if err != nil {
		return nil, err
	}
	return SectionView{
		Type:        "section",
		Heading:     s.heading,
		Description: s.description,
		Columns:     s.columns,
		Collapsible: s.collapsible,
		Collapsed:   s.collapsed,
		Schema:      children,
	}, nil
}
