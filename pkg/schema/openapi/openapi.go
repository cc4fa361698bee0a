// Package openapi derives form definitions from the component schemas of an
// OpenAPI 3 document.
//
// Every object schema becomes a model and an edit form. Enums become static
// selects, booleans yes/no selects and properties annotated with
// x-relationships become relationship selects.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/SalvaTerol/filament/pkg/options"
	"github.com/SalvaTerol/filament/pkg/schema"
)

const (
	relationshipExtensionKey = "x-relationships"
	tableExtensionKey        = "x-table"
	formSuffix               = ".edit"
)

// Options tunes the conversion.
type Options struct {
	// Validate runs the OpenAPI validator before converting.
	Validate bool
	// Schemas restricts conversion to the named component schemas.
	Schemas []string
}

// Load parses raw and converts its component schemas.
func Load(ctx context.Context, raw []byte, opts Options) (schema.Definition, error) {
	if len(raw) == 0 {
		return schema.Definition{}, errors.New("openapi: document payload is empty")
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return schema.Definition{}, fmt.Errorf("openapi: load document: %w", err)
	}
	if opts.Validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return schema.Definition{}, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	return Convert(doc, opts)
}

// Convert maps the component schemas of doc.
func Convert(doc *openapi3.T, opts Options) (schema.Definition, error) {
	def := schema.Definition{
		Models:    map[string]schema.ModelDef{},
		Relations: map[string]map[string]schema.RelationDef{},
		Forms:     map[string]schema.FormDef{},
	}
	if doc == nil || doc.Components == nil {
		return def, nil
	}

	names := opts.Schemas
	if len(names) == 0 {
		for name := range doc.Components.Schemas {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	for _, name := range names {
		ref, ok := doc.Components.Schemas[name]
		if !ok || ref == nil || ref.Value == nil {
			return def, fmt.Errorf("openapi: unknown component schema %q", name)
		}
		if !isType(ref.Value, openapi3.TypeObject) {
			continue
		}
		if err := convertModel(&def, name, ref.Value); err != nil {
			return def, err
		}
	}
	if err := def.Validate("openapi"); err != nil {
		return def, err
	}
	return def, nil
}

func convertModel(def *schema.Definition, name string, src *openapi3.Schema) error {
	model := modelName(name)
	table, _ := src.Extensions[tableExtensionKey].(string)
	def.Models[model] = schema.ModelDef{Table: table}

	required := make(map[string]bool, len(src.Required))
	for _, prop := range src.Required {
		required[prop] = true
	}

	props := make([]string, 0, len(src.Properties))
	for prop := range src.Properties {
		props = append(props, prop)
	}
	sort.Strings(props)

	form := schema.FormDef{Model: model, Title: src.Title}
	for _, prop := range props {
		ref := src.Properties[prop]
		if ref == nil || ref.Value == nil {
			continue
		}
		field, rel, ok, err := convertProperty(prop, ref.Value)
		if err != nil {
			return fmt.Errorf("openapi: %s.%s: %w", name, prop, err)
		}
		if !ok {
			continue
		}
		if required[prop] {
			field.Required = schema.Literal(true)
		}
		if rel != nil {
			if def.Relations[model] == nil {
				def.Relations[model] = map[string]schema.RelationDef{}
			}
			def.Relations[model][field.Relationship.Name] = *rel
		}
		form.Fields = append(form.Fields, field)
	}
	def.Forms[model+formSuffix] = form
	return nil
}

func convertProperty(name string, src *openapi3.Schema) (schema.FieldDef, *schema.RelationDef, bool, error) {
	field := schema.FieldDef{
		Path:       name,
		Label:      src.Title,
		HelperText: src.Description,
		Default:    src.Default,
	}
	if src.ReadOnly {
		field.Disabled = schema.Literal(true)
	}

	if raw, ok := src.Extensions[relationshipExtensionKey]; ok {
		rel, relName, title, err := relationFromExtension(name, raw)
		if err != nil {
			return field, nil, false, err
		}
		field.Relationship = &schema.RelationshipDef{Name: relName, Title: title}
		if isType(src, openapi3.TypeArray) {
			field.Multiple = schema.Literal(true)
		}
		return field, &rel, true, nil
	}

	switch {
	case len(src.Enum) > 0:
		field.Options = enumOptions(src.Enum)
	case isType(src, openapi3.TypeArray) && src.Items != nil && src.Items.Value != nil && len(src.Items.Value.Enum) > 0:
		field.Options = enumOptions(src.Items.Value.Enum)
		field.Multiple = schema.Literal(true)
	case isType(src, openapi3.TypeBoolean):
		field.Boolean = &schema.BooleanDef{}
	case isType(src, openapi3.TypeString):
		field.Type = "text"
		if src.Format == "email" {
			field.Type = "email"
		}
	case isType(src, openapi3.TypeInteger), isType(src, openapi3.TypeNumber):
		field.Type = "text"
	default:
		return field, nil, false, nil
	}
	return field, nil, true, nil
}

// relationFromExtension reads the relationship annotation. The relation
// name defaults to the property without an "_id" suffix; the title column
// defaults to "name".
func relationFromExtension(prop string, raw any) (schema.RelationDef, string, string, error) {
	attrs, ok := raw.(map[string]any)
	if !ok {
		return schema.RelationDef{}, "", "", fmt.Errorf("%s must be an object", relationshipExtensionKey)
	}
	get := func(key string) string {
		value, _ := attrs[key].(string)
		return strings.TrimSpace(value)
	}

	target := get("target")
	if target == "" {
		return schema.RelationDef{}, "", "", fmt.Errorf("%s requires a target", relationshipExtensionKey)
	}
	if idx := strings.LastIndex(target, "/"); idx >= 0 {
		target = target[idx+1:]
	}
	kind := get("type")
	if kind == "" {
		kind = "belongsTo"
	}
	name := get("name")
	if name == "" {
		name = strings.TrimSuffix(prop, "_id")
	}
	title := get("title")
	if title == "" {
		title = "name"
	}
	rel := schema.RelationDef{
		Kind:            kind,
		Related:         modelName(target),
		ForeignKey:      get("foreignKey"),
		OwnerKey:        get("ownerKey"),
		Pivot:           get("pivot"),
		ForeignPivotKey: get("foreignPivotKey"),
		RelatedPivotKey: get("relatedPivotKey"),
	}
	return rel, name, title, nil
}

func enumOptions(values []any) schema.OptionList {
	pairs := make([]options.Pair, 0, len(values))
	for _, value := range values {
		key := options.Key(value)
		pairs = append(pairs, options.Pair{Key: key, Label: key})
	}
	return schema.NewOptionList(pairs...)
}

func isType(src *openapi3.Schema, typ string) bool {
	return src.Type != nil && src.Type.Is(typ)
}

func modelName(component string) string {
	return strings.ToLower(component)
}
