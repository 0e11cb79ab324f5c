package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/BerylCAtieno/document-extractor/internal/models"
)

const (
	// DefaultConfidence is assigned when the model gives none and to every
	// field recovered by the line heuristic.
	DefaultConfidence   = 0.95
	DefaultDocumentType = "document"
)

type wireField struct {
	Label       string              `json:"label"`
	Value       any                 `json:"value"`
	Type        *string             `json:"type"`
	Position    *string             `json:"position"`
	Confidence  *float64            `json:"confidence"`
	BoundingBox *models.BoundingBox `json:"boundingBox"`
}

type wireTable struct {
	Position *string `json:"position"`
	Headers  []any   `json:"headers"`
	Rows     [][]any `json:"rows"`
}

type wireResult struct {
	DocumentType    *string            `json:"documentType"`
	ExtractedFields []wireField        `json:"extractedFields"`
	Tables          []wireTable        `json:"tables"`
	Logos           []models.Logo      `json:"logos"`
	Signatures      []models.Signature `json:"signatures"`
	FullText        *string            `json:"fullText"`
}

// ErrNotJSON means the response holds no JSON object at all; callers fall
// back to the line heuristic.
var ErrNotJSON = errors.New("model response is not a JSON object")

// ParseExtraction parses a model response into an ExtractionResult. The
// response must be a single JSON object, optionally wrapped in a markdown
// code fence. An object that misses the extraction schema is repaired with
// SanitizeExtractionJSON; the returned notes list what was repaired and are
// empty for a response that matched the schema.
func ParseExtraction(raw string) (*models.ExtractionResult, []string, error) {
	content := []byte(extractJSON(strings.TrimSpace(raw)))
	if len(content) == 0 {
		return nil, nil, fmt.Errorf("empty model response")
	}

	var obj map[string]any
	if err := json.Unmarshal(content, &obj); err != nil || obj == nil {
		return nil, nil, ErrNotJSON
	}

	var notes []string
	if err := ValidateExtractionJSON(content); err != nil {
		repaired, changed, serr := SanitizeExtractionJSON(content)
		if serr != nil {
			return nil, nil, fmt.Errorf("%w (repair failed: %v)", err, serr)
		}
		if verr := ValidateExtractionJSON(repaired); verr != nil {
			return nil, nil, fmt.Errorf("repaired response still invalid: %w", verr)
		}
		content, notes = repaired, append(changed, "schema: "+err.Error())
	}

	var wire wireResult
	if err := json.Unmarshal(content, &wire); err != nil {
		return nil, nil, fmt.Errorf("unmarshal extraction: %w", err)
	}

	result := &models.ExtractionResult{
		DocumentType:    DefaultDocumentType,
		ExtractedFields: make([]models.ExtractedField, 0, len(wire.ExtractedFields)),
		Tables:          make([]models.Table, 0, len(wire.Tables)),
		Logos:           wire.Logos,
		Signatures:      wire.Signatures,
	}
	if wire.DocumentType != nil && strings.TrimSpace(*wire.DocumentType) != "" {
		result.DocumentType = strings.TrimSpace(*wire.DocumentType)
	}
	if wire.FullText != nil {
		result.Content = *wire.FullText
	}

	for _, f := range wire.ExtractedFields {
		field, ok := normalizeField(f)
		if ok {
			result.ExtractedFields = append(result.ExtractedFields, field)
		}
	}

	for _, t := range wire.Tables {
		table := models.Table{
			Headers: scalarsToStrings(t.Headers),
			Rows:    make([][]string, 0, len(t.Rows)),
		}
		if t.Position != nil {
			table.Position = *t.Position
		}
		for _, row := range t.Rows {
			table.Rows = append(table.Rows, scalarsToStrings(row))
		}
		result.Tables = append(result.Tables, table)
	}

	return result, notes, nil
}

// ParseLines is the best-effort fallback for responses that are not valid
// structured output. Every "label: value" line becomes a field; the first
// colon splits the line and both sides must be non-empty after trimming.
func ParseLines(text string) []models.ExtractedField {
	fields := []models.ExtractedField{}

	for _, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}

		label := strings.Trim(strings.TrimSpace(line[:idx]), "-*• ")
		value := strings.TrimSpace(line[idx+1:])
		if label == "" || value == "" {
			continue
		}

		fields = append(fields, models.ExtractedField{
			Label:      label,
			Value:      value,
			Type:       models.FieldTypeText,
			Confidence: DefaultConfidence,
		})
	}

	return fields
}

// FallbackExtraction wraps ParseLines into a full result. Content is the raw
// response text.
func FallbackExtraction(raw string) *models.ExtractionResult {
	return &models.ExtractionResult{
		DocumentType:    DefaultDocumentType,
		ExtractedFields: ParseLines(raw),
		Tables:          []models.Table{},
		Content:         raw,
	}
}

func normalizeField(f wireField) (models.ExtractedField, bool) {
	field := models.ExtractedField{
		Label:      strings.TrimSpace(f.Label),
		Value:      strings.TrimSpace(scalarToString(f.Value)),
		Type:       models.FieldTypeText,
		Confidence: DefaultConfidence,
	}
	if field.Label == "" {
		return field, false
	}

	if f.Type != nil {
		switch t := models.FieldType(strings.ToLower(strings.TrimSpace(*f.Type))); t {
		case models.FieldTypeText, models.FieldTypeLogo, models.FieldTypeSignature, models.FieldTypeStamp:
			field.Type = t
		}
	}
	if f.Position != nil {
		field.Position = strings.TrimSpace(*f.Position)
	}
	if f.Confidence != nil {
		field.Confidence = normalizeConfidence(*f.Confidence)
	}
	if f.BoundingBox != nil {
		field.BoundingBox = &models.BoundingBox{
			X:      clamp01(f.BoundingBox.X),
			Y:      clamp01(f.BoundingBox.Y),
			Width:  clamp01(f.BoundingBox.Width),
			Height: clamp01(f.BoundingBox.Height),
		}
	}

	return field, true
}

// normalizeConfidence maps percentages (e.g. 87) to fractions and clamps
// the result into [0,1].
func normalizeConfidence(c float64) float64 {
	if math.IsNaN(c) {
		return DefaultConfidence
	}
	if c > 1 && c <= 100 {
		c = c / 100
	}
	return clamp01(c)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func scalarToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func scalarsToStrings(vs []any) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = scalarToString(v)
	}
	return out
}

// extractJSON strips a surrounding markdown code block and any prose around
// the outermost JSON object.
func extractJSON(content string) string {
	// Remove markdown code blocks if present
	if len(content) > 7 && content[:3] == "```" {
		start := 0
		end := len(content)

		// Find first newline after opening ```
		for i := 3; i < len(content); i++ {
			if content[i] == '\n' {
				start = i + 1
				break
			}
		}

		// Find closing ```
		for i := len(content) - 1; i >= 0; i-- {
			if i >= 2 && content[i-2:i+1] == "```" {
				end = i - 2
				break
			}
		}

		if start < end {
			content = content[start:end]
		}
	}

	first := strings.Index(content, "{")
	last := strings.LastIndex(content, "}")
	if first >= 0 && last > first {
		content = content[first : last+1]
	}

	return strings.TrimSpace(content)
}
