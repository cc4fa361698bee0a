package schema

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/SalvaTerol/filament/pkg/action"
	"github.com/SalvaTerol/filament/pkg/evaluate"
	"github.com/SalvaTerol/filament/pkg/evaluate/expr"
	"github.com/SalvaTerol/filament/pkg/options"
	"github.com/SalvaTerol/filament/pkg/relation"
)

// Definition is one or more definition files merged together: the models
// forms edit, the relations between them and the forms themselves.
type Definition struct {
	Models    map[string]ModelDef               `yaml:"models"`
	Relations map[string]map[string]RelationDef `yaml:"relations"`
	Forms     map[string]FormDef                `yaml:"forms"`
}

// ModelDef describes a table. Table defaults to the model name.
type ModelDef struct {
	Table   string `yaml:"table"`
	Key     string `yaml:"key"`
	KeyType string `yaml:"keyType"`
}

// RelationDef describes a relation owned by a model. Related names a model.
type RelationDef struct {
	Kind            string `yaml:"kind"`
	Related         string `yaml:"related"`
	ForeignKey      string `yaml:"foreignKey"`
	OwnerKey        string `yaml:"ownerKey"`
	Pivot           string `yaml:"pivot"`
	ForeignPivotKey string `yaml:"foreignPivotKey"`
	RelatedPivotKey string `yaml:"relatedPivotKey"`
	ParentKey       string `yaml:"parentKey"`
	RelatedKey      string `yaml:"relatedKey"`
}

// FormDef lists the fields of a form, directly or grouped into sections.
type FormDef struct {
	Model    string       `yaml:"model"`
	Title    string       `yaml:"title"`
	Fields   []FieldDef   `yaml:"fields"`
	Sections []SectionDef `yaml:"sections"`
}

// SectionDef groups fields under a heading.
type SectionDef struct {
	Heading     string     `yaml:"heading"`
	Description string     `yaml:"description"`
	Columns     int        `yaml:"columns"`
	Collapsible bool       `yaml:"collapsible"`
	Collapsed   bool       `yaml:"collapsed"`
	Fields      []FieldDef `yaml:"fields"`
}

// FieldDef describes a field. Type is "select" (the default) or "text".
type FieldDef struct {
	Type         string           `yaml:"type"`
	Path         string           `yaml:"path"`
	Label        string           `yaml:"label"`
	HelperText   string           `yaml:"helperText"`
	Placeholder  string           `yaml:"placeholder"`
	Default      any              `yaml:"default"`
	Required     Flag             `yaml:"required"`
	Disabled     Flag             `yaml:"disabled"`
	Hidden       Flag             `yaml:"hidden"`
	Searchable   Flag             `yaml:"searchable"`
	Multiple     Flag             `yaml:"multiple"`
	Preload      Flag             `yaml:"preload"`
	AllowHTML    bool             `yaml:"allowHtml"`
	OptionsLimit int              `yaml:"optionsLimit"`
	Search       []string         `yaml:"searchColumns"`
	Options      OptionList       `yaml:"options"`
	Boolean      *BooleanDef      `yaml:"boolean"`
	Relationship *RelationshipDef `yaml:"relationship"`
	OptionLabel  string           `yaml:"optionLabel"`
	DisabledKeys []any            `yaml:"disableOptions"`
	CreateOption []action.Input   `yaml:"createOption"`
	Messages     MessagesDef      `yaml:"messages"`
}

// BooleanDef turns a select into a yes/no choice.
type BooleanDef struct {
	True  string `yaml:"true"`
	False string `yaml:"false"`
}

// RelationshipDef binds a select to a relation of the form model. Where
// restricts the related rows by column equality.
type RelationshipDef struct {
	Name    string         `yaml:"name"`
	Title   string         `yaml:"title"`
	OrderBy string         `yaml:"orderBy"`
	Limit   int            `yaml:"limit"`
	Where   map[string]any `yaml:"where"`
}

// MessagesDef overrides the interaction texts of a select.
type MessagesDef struct {
	Loading         string `yaml:"loading"`
	NoSearchResults string `yaml:"noSearchResults"`
	Searching       string `yaml:"searching"`
	SearchPrompt    string `yaml:"searchPrompt"`
}

// Flag is a boolean slot written either as a literal or as a rule string,
// e.g. `disabled: status == "published"`.
type Flag struct {
	set     bool
	literal bool
	rule    string
}

// UnmarshalYAML accepts booleans and rule strings.
func (f *Flag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("schema: line %d: flag must be a boolean or a rule", node.Line)
	}
	f.set = true
	if node.ShortTag() == "!!bool" {
		return node.Decode(&f.literal)
	}
	f.rule = node.Value
	if _, err := expr.Compile(f.rule); err != nil {
		return fmt.Errorf("schema: line %d: %w", node.Line, err)
	}
	return nil
}

// Literal returns a constant flag.
func Literal(value bool) Flag { return Flag{set: true, literal: value} }

// Rule returns a flag evaluating rule against the form state.
func Rule(rule string) Flag { return Flag{set: true, rule: rule} }

// IsSet reports whether the flag was written.
func (f Flag) IsSet() bool { return f.set }

// Value compiles the flag into a slot.
func (f Flag) Value() (evaluate.Value[bool], error) {
	if f.rule != "" {
		return expr.Compile(f.rule)
	}
	return evaluate.Of(f.literal), nil
}

// OptionList keeps options in document order. It accepts a mapping of
// value to label or a sequence of {value, label} entries.
type OptionList struct {
	pairs []options.Pair
}

// UnmarshalYAML decodes either option form.
func (l *OptionList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			l.pairs = append(l.pairs, options.Pair{Key: node.Content[i].Value, Label: node.Content[i+1].Value})
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			var entry struct {
				Value any    `yaml:"value"`
				Label string `yaml:"label"`
			}
			if err := item.Decode(&entry); err != nil {
				return err
			}
			key := options.Key(entry.Value)
			if entry.Label == "" {
				entry.Label = key
			}
			l.pairs = append(l.pairs, options.Pair{Key: key, Label: entry.Label})
		}
	default:
		return fmt.Errorf("schema: line %d: options must be a mapping or a list", node.Line)
	}
	return nil
}

// Len returns the number of options.
func (l OptionList) Len() int { return len(l.pairs) }

// Set returns the options as a set.
func (l OptionList) Set() *options.Set { return options.FromPairs(l.pairs...) }

// NewOptionList builds a list from pairs.
func NewOptionList(pairs ...options.Pair) OptionList {
	return OptionList{pairs: append([]options.Pair(nil), pairs...)}
}

func newDefinition() Definition {
	return Definition{
		Models:    map[string]ModelDef{},
		Relations: map[string]map[string]RelationDef{},
		Forms:     map[string]FormDef{},
	}
}

// Merge adds other into d. Redefining a model, relation or form fails.
func (d *Definition) Merge(other Definition, location string) error {
	if d.Models == nil {
		d.Models = map[string]ModelDef{}
	}
	if d.Relations == nil {
		d.Relations = map[string]map[string]RelationDef{}
	}
	if d.Forms == nil {
		d.Forms = map[string]FormDef{}
	}
	for name, m := range other.Models {
		if _, ok := d.Models[name]; ok {
			return fmt.Errorf("schema: duplicate model %q (file %s)", name, location)
		}
		d.Models[name] = m
	}
	for owner, rels := range other.Relations {
		if d.Relations[owner] == nil {
			d.Relations[owner] = map[string]RelationDef{}
		}
		for name, rel := range rels {
			if _, ok := d.Relations[owner][name]; ok {
				return fmt.Errorf("schema: duplicate relation %s.%s (file %s)", owner, name, location)
			}
			d.Relations[owner][name] = rel
		}
	}
	for id, form := range other.Forms {
		if _, ok := d.Forms[id]; ok {
			return fmt.Errorf("schema: duplicate form %q (file %s)", id, location)
		}
		d.Forms[id] = form
	}
	return nil
}

// FormIDs returns the form identifiers in sorted order.
func (d Definition) FormIDs() []string {
	ids := make([]string, 0, len(d.Forms))
	for id := range d.Forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks relation kinds and field paths. location names the
// origin in errors.
func (d Definition) Validate(location string) error {
	for owner, rels := range d.Relations {
		for name, rel := range rels {
			if _, err := relation.NormalizeKind(rel.Kind); err != nil {
				return fmt.Errorf("schema: %s: relation %s.%s: %w", location, owner, name, err)
			}
			if strings.TrimSpace(rel.Related) == "" {
				return fmt.Errorf("schema: %s: relation %s.%s has no related model", location, owner, name)
			}
		}
	}
	for id, form := range d.Forms {
		for _, field := range form.allFields() {
			if strings.TrimSpace(field.Path) == "" {
				return fmt.Errorf("schema: %s: form %q defines a field without path", location, id)
			}
			switch field.Type {
			case "", "select", "text", "email":
			default:
				return fmt.Errorf("schema: %s: form %q field %q has unknown type %q", location, id, field.Path, field.Type)
			}
		}
	}
	return nil
}

func (f FormDef) allFields() []FieldDef {
	out := append([]FieldDef(nil), f.Fields...)
	for _, section := range f.Sections {
		out = append(out, section.Fields...)
	}
	return out
}
