package gemini

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

type fieldKind string

const (
	kindString  fieldKind = "string"
	kindNumber  fieldKind = "number"
	kindInteger fieldKind = "integer"
	kindBoolean fieldKind = "boolean"
	kindStrings fieldKind = "strings"
)

type field struct {
	name     string
	kind     fieldKind
	required bool
	desc     string
}

// propertyFields drives both the schema sent to the model and the schema its
// answer is validated against, so the two cannot drift apart.
var propertyFields = []field{
	{name: "id", kind: kindString, required: true},
	{name: "address", kind: kindString, required: true},
	{name: "city", kind: kindString, required: true},
	{name: "state", kind: kindString, required: true},
	{name: "neighborhood", kind: kindString, required: true},
	{name: "lat", kind: kindNumber, required: true},
	{name: "lng", kind: kindNumber, required: true},
	{name: "priceMinorUnits", kind: kindInteger, required: true, desc: "Price in the smallest currency unit, e.g., cents."},
	{name: "currencyCode", kind: kindString, required: true, desc: "The ISO 4217 currency code, e.g., GHS or USD."},
	{name: "beds", kind: kindInteger, required: true},
	{name: "baths", kind: kindInteger, required: true},
	{name: "sqft", kind: kindInteger, required: true},
	{name: "type", kind: kindString, required: true},
	{name: "verified", kind: kindBoolean, required: true},
	{name: "description", kind: kindString, required: true},
	{name: "imageUrls", kind: kindStrings, required: true},
	{name: "agentName", kind: kindString},
	{name: "agentPhone", kind: kindString},
	{name: "agentEmail", kind: kindString},
}

var listingTypes = []string{"For Sale", "For Rent"}

func requiredFields() []string {
	out := make([]string, 0, len(propertyFields))
	for _, f := range propertyFields {
		if f.required {
			out = append(out, f.name)
		}
	}
	return out
}

// responseSchema is the generationConfig.responseSchema payload. The API
// uses its own OpenAPI subset with upper-case type names.
func responseSchema() map[string]any {
	props := make(map[string]any, len(propertyFields))
	for _, f := range propertyFields {
		var s map[string]any
		switch f.kind {
		case kindStrings:
			s = map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}}
		case kindNumber:
			s = map[string]any{"type": "NUMBER"}
		case kindInteger:
			s = map[string]any{"type": "INTEGER"}
		case kindBoolean:
			s = map[string]any{"type": "BOOLEAN"}
		default:
			s = map[string]any{"type": "STRING"}
		}
		if f.name == "type" {
			s["enum"] = listingTypes
		}
		if f.desc != "" {
			s["description"] = f.desc
		}
		props[f.name] = s
	}
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"properties": map[string]any{
				"type":  "ARRAY",
				"items": map[string]any{"type": "OBJECT", "properties": props, "required": requiredFields()},
			},
		},
		"required": []string{"properties"},
	}
}

// validationSchema is the JSON Schema each returned listing must satisfy.
// It is stricter than responseSchema: the model does not always honor ranges.
func validationSchema() map[string]any {
	props := make(map[string]any, len(propertyFields))
	for _, f := range propertyFields {
		var s map[string]any
		switch f.kind {
		case kindStrings:
			s = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
		case kindNumber:
			s = map[string]any{"type": "number"}
		case kindInteger:
			s = map[string]any{"type": "integer", "minimum": 0}
		case kindBoolean:
			s = map[string]any{"type": "boolean"}
		default:
			s = map[string]any{"type": "string"}
		}
		props[f.name] = s
	}
	props["id"] = map[string]any{"type": "string", "minLength": 1}
	props["lat"] = map[string]any{"type": "number", "minimum": -90, "maximum": 90}
	props["lng"] = map[string]any{"type": "number", "minimum": -180, "maximum": 180}
	props["currencyCode"] = map[string]any{"type": "string", "minLength": 3, "maxLength": 3}
	props["type"] = map[string]any{"type": "string", "enum": listingTypes}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   requiredFields(),
	}
}

var itemSchema = mustSchema(validationSchema())

func mustSchema(doc map[string]any) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("gemini: compile listing schema: %v", err))
	}
	return s
}

// validateItem checks one raw listing and returns the schema violations, if any.
func validateItem(raw []byte) []string {
	res, err := itemSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return []string{err.Error()}
	}
	if res.Valid() {
		return nil
	}
	out := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		out = append(out, e.String())
	}
	return out
}
