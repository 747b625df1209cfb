package composer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// JSONSchemaValidator compiles named schemas once and validates payloads.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate checks payload against the schema registered under name. The
// payload is normalized through JSON so structs and maps validate alike.
func (v *JSONSchemaValidator) Validate(name string, schema map[string]any, payload any) error {
	compiled, err := v.schemaFor(name, schema)
	if err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("composer: marshal %s payload: %w", name, err)
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return fmt.Errorf("composer: normalize %s payload: %w", name, err)
	}
	if err := compiled.Validate(normalized); err != nil {
		return fmt.Errorf("composer: %s failed validation: %w", name, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(name string, schema map[string]any) (*jsonschema.Schema, error) {
	v.mu.RLock()
	compiled, ok := v.compiled[name]
	v.mu.RUnlock()
	if ok {
		return compiled, nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("composer: marshal schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("composer: load schema %s: %w", name, err)
	}
	compiled, err = compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("composer: compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.compiled[name] = compiled
	v.mu.Unlock()
	return compiled, nil
}

var defaultValidator = NewJSONSchemaValidator()

const hexColorPattern = `^(transparent|#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})|rgba?\(.*\))$`

// StyleConfigSchema describes the accepted StyleConfig payload.
func StyleConfigSchema() map[string]any {
	color := map[string]any{"type": "string", "pattern": hexColorPattern}
	unit := func(max float64) map[string]any {
		return map[string]any{"type": "number", "minimum": 0, "maximum": max}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"backgroundColor":        color,
			"border":                 map[string]any{"type": "boolean"},
			"borderColor":            color,
			"cornerRadius":           map[string]any{"enum": []any{"Small", "Medium", "Large"}},
			"shadow":                 map[string]any{"enum": []any{"Light", "Medium", "Dark"}},
			"spaceAround":            map[string]any{"enum": []any{"Small", "Medium", "Large"}},
			"headerBackgroundColor":  color,
			"headerDividerLine":      map[string]any{"type": "boolean"},
			"headerDividerLineColor": color,
			"headerHidden":           map[string]any{"type": "boolean"},
			"headerTitleAlignment":   map[string]any{"enum": []any{"Left", "Center"}},
			"headerTitleTextColor":   color,
			"paletteColor1":          color,
			"paletteColor2":          color,
			"paletteColor3":          color,
			"vibrance":               map[string]any{"type": "number", "minimum": -100, "maximum": 100},
			"axisColor":              color,
			"gridLineStyle":          map[string]any{"enum": []any{"both", "x-only", "y-only", "dots", "none"}},
			"legendPosition":         map[string]any{"enum": []any{"hidden", "top", "bottom", "left", "right"}},
			"borderRadius":           unit(50),
			"barWidth":               unit(200),
			"barOpacity":             unit(1),
			"pieOpacity":             unit(1),
			"isDonut":                map[string]any{"type": "boolean"},
			"donutWidth":             unit(100),
			"lineWidth":              unit(20),
			"markerRadius":           unit(20),
			"applyGradient":          map[string]any{"type": "boolean"},
			"width":                  unit(10000),
			"height":                 unit(10000),
		},
	}
}

// ValidateStyleConfig rejects style configurations the editor could not have
// produced.
func ValidateStyleConfig(cfg StyleConfig) error {
	return defaultValidator.Validate("style-config", StyleConfigSchema(), cfg)
}
