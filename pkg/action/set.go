package action

// Set is an ordered name to action mapping. Entries are never overwritten:
// the first action registered under a name wins.
type Set struct {
	names   []string
	actions map[string]*Action
}

// NewSet builds a set from actions in order.
func NewSet(actions ...*Action) *Set {
	s := &Set{}
	for _, a := range actions {
		s.Put(a)
	}
	return s
}

// Put appends a unless an action with the same name exists. It reports
// whether a was added.
func (s *Set) Put(a *Action) bool {
	if a == nil || a.name == "" {
		return false
	}
	if s.actions == nil {
		s.actions = map[string]*Action{}
	}
	if _, ok := s.actions[a.name]; ok {
		return false
	}
	s.names = append(s.names, a.name)
	s.actions[a.name] = a
	return true
}

// Prepend inserts a at the front unless the name exists.
func (s *Set) Prepend(a *Action) bool {
	if !s.Put(a) {
		return false
	}
	copy(s.names[1:], s.names[:len(s.names)-1])
	s.names[0] = a.name
	return true
}

// Get returns the action named name.
func (s *Set) Get(name string) (*Action, bool) {
	if s == nil {
		return nil, false
	}
	a, ok := s.actions[name]
	return a, ok
}

// Names returns the action names in order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// Len returns the number of actions.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Actions returns the actions in order.
func (s *Set) Actions() []*Action {
	out := make([]*Action, 0, s.Len())
	for _, name := range s.Names() {
		out = append(out, s.actions[name])
	}
	return out
}
