package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// briefFields parses string settings into typed brief fields. Values go
// through the YAML scalar resolver so numbers and lists take their
// natural types ("variantCount=4", 'sampleTexts=["a","b"]'); anything
// that resolves to a mapping stays a plain string, so colons inside
// free text survive.
func briefFields(settings map[string]string) map[string]any {
	fields := make(map[string]any, len(settings))
	for key, raw := range settings {
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		switch v.(type) {
		case map[string]any, nil:
			v = raw
		}
		fields[key] = v
	}
	return fields
}

// briefFromSettings assembles a typed brief for the kind from string
// key=value settings.
func briefFromSettings(kind tools.Kind, settings map[string]string) (tools.Params, error) {
	data, err := json.Marshal(briefFields(settings))
	if err != nil {
		return nil, err
	}
	return tools.UnmarshalParams(kind, data)
}

// briefSettings flattens a typed brief back into displayable string
// settings, keyed by field name. Zero values are dropped; lists render
// as JSON so they re-parse through briefFields.
func briefSettings(params tools.Params) map[string]string {
	out := make(map[string]string)
	if params == nil {
		return out
	}
	data, err := json.Marshal(params)
	if err != nil {
		return out
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return out
	}

	for key, v := range fields {
		switch val := v.(type) {
		case string:
			if val != "" {
				out[key] = val
			}
		case float64:
			if val != 0 {
				out[key] = strconv.FormatFloat(val, 'f', -1, 64)
			}
		case bool:
			out[key] = strconv.FormatBool(val)
		case nil:
		default:
			if encoded, err := json.Marshal(v); err == nil {
				out[key] = string(encoded)
			}
		}
	}
	return out
}

// mergeBrief layers a brief file and --set overrides over the session's
// current params and returns the assembled brief. Field names follow
// the tool's parameter schema (category, productName, variantCount...).
func mergeBrief(kind tools.Kind, current tools.Params, briefFile string, sets []string) (tools.Params, error) {
	fields := briefFields(briefSettings(current))

	if briefFile != "" {
		data, err := os.ReadFile(briefFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read brief file: %w", err)
		}
		var fileFields map[string]any
		if err := yaml.Unmarshal(data, &fileFields); err != nil {
			return nil, fmt.Errorf("failed to parse brief file %s: %w", briefFile, err)
		}
		for key, v := range fileFields {
			fields[key] = v
		}
	}

	settings := make(map[string]string, len(sets))
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q is not key=value", kv)
		}
		settings[strings.TrimSpace(key)] = value
	}
	for key, v := range briefFields(settings) {
		fields[key] = v
	}

	if len(fields) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return tools.UnmarshalParams(kind, data)
}
