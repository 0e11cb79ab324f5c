package analyzer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SanitizeExtractionJSON repairs a JSON object that failed the extraction
// schema so the parts the model did get right survive. Non-object field
// entries and fields without a usable label are dropped, scalars are
// coerced, and a missing or null extractedFields becomes an empty array.
// The returned notes name every key that was dropped or changed.
func SanitizeExtractionJSON(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var notes []string
	note := func(format string, args ...any) {
		notes = append(notes, fmt.Sprintf(format, args...))
	}

	for _, k := range []string{"documentType", "fullText"} {
		if v, ok := m[k]; ok {
			if _, isString := v.(string); !isString {
				delete(m, k)
				note("%s(dropped)", k)
			}
		}
	}

	rawFields, isArray := m["extractedFields"].([]any)
	if !isArray {
		note("extractedFields(reset)")
	}
	fields := make([]any, 0, len(rawFields))
	for i, item := range rawFields {
		f, ok := sanitizeField(item)
		if !ok {
			note("extractedFields[%d](dropped)", i)
			continue
		}
		fields = append(fields, f)
	}
	m["extractedFields"] = fields

	if v, ok := m["tables"]; ok {
		tables, isArray := v.([]any)
		if !isArray {
			delete(m, "tables")
			note("tables(dropped)")
		} else {
			m["tables"] = sanitizeTables(tables)
		}
	}

	for key, allowed := range map[string][]string{
		"logos":      {"description", "position", "text"},
		"signatures": {"description", "position", "signatory"},
	} {
		if v, ok := m[key]; ok {
			items, isArray := v.([]any)
			if !isArray {
				delete(m, key)
				note("%s(dropped)", key)
				continue
			}
			m[key] = sanitizeObjects(items, allowed)
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, nil, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, notes, nil
}

func sanitizeField(item any) (map[string]any, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return nil, false
	}

	label, ok := coerceString(obj["label"])
	if !ok || strings.TrimSpace(label) == "" {
		return nil, false
	}
	value, _ := coerceString(obj["value"])

	out := map[string]any{"label": label, "value": value}
	for _, k := range []string{"type", "position"} {
		if s, ok := obj[k].(string); ok {
			out[k] = s
		}
	}
	if c, ok := coerceNumber(obj["confidence"]); ok {
		out["confidence"] = c
	}
	if box, ok := obj["boundingBox"].(map[string]any); ok {
		clean := map[string]any{}
		for _, k := range []string{"x", "y", "width", "height"} {
			n, ok := coerceNumber(box[k])
			if !ok {
				clean = nil
				break
			}
			clean[k] = n
		}
		if clean != nil {
			out["boundingBox"] = clean
		}
	}
	return out, true
}

func sanitizeTables(items []any) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		table := map[string]any{
			"headers": coerceRow(obj["headers"]),
			"rows":    []any{},
		}
		if s, ok := obj["position"].(string); ok {
			table["position"] = s
		}
		if rows, ok := obj["rows"].([]any); ok {
			clean := make([]any, 0, len(rows))
			for _, row := range rows {
				clean = append(clean, coerceRow(row))
			}
			table["rows"] = clean
		}
		out = append(out, table)
	}
	return out
}

func sanitizeObjects(items []any, allowed []string) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		clean := map[string]any{}
		for _, k := range allowed {
			if s, ok := coerceString(obj[k]); ok && s != "" {
				clean[k] = s
			}
		}
		out = append(out, clean)
	}
	return out
}

func coerceRow(v any) []any {
	cells, ok := v.([]any)
	if !ok {
		return []any{}
	}
	out := make([]any, len(cells))
	for i, c := range cells {
		s, _ := coerceString(c)
		out[i] = s
	}
	return out
}

// coerceString renders scalars as text and nested values as compact JSON.
// It reports false only for a missing or null value.
func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string, float64, bool:
		return scalarToString(t), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

// coerceNumber accepts numbers and numeric strings such as "0.9" or "87%".
func coerceNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		percent := strings.HasSuffix(s, "%")
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
		if err != nil {
			return 0, false
		}
		if percent {
			f /= 100
		}
		return f, true
	}
	return 0, false
}
