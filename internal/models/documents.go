package models

import (
	"slices"
	"time"
)

// FieldType classifies an extracted element.
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeLogo      FieldType = "logo"
	FieldTypeSignature FieldType = "signature"
	FieldTypeStamp     FieldType = "stamp"
)

// BoundingBox holds document-relative fractional coordinates in [0,1].
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ExtractedField struct {
	Label       string       `json:"label"`
	Value       string       `json:"value"`
	Type        FieldType    `json:"type,omitempty"`
	Position    string       `json:"position,omitempty"`
	Confidence  float64      `json:"confidence"`
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
}

type Table struct {
	Position string     `json:"position,omitempty"`
	Headers  []string   `json:"headers"`
	Rows     [][]string `json:"rows"`
}

type Logo struct {
	Description string `json:"description,omitempty"`
	Position    string `json:"position,omitempty"`
	Text        string `json:"text,omitempty"`
}

type Signature struct {
	Description string `json:"description,omitempty"`
	Position    string `json:"position,omitempty"`
	Signatory   string `json:"signatory,omitempty"`
}

// ExtractionResult is the structured output for one uploaded document.
type ExtractionResult struct {
	DocumentType    string           `json:"documentType"`
	ExtractedFields []ExtractedField `json:"extractedFields"`
	Tables          []Table          `json:"tables"`
	Logos           []Logo           `json:"logos,omitempty"`
	Signatures      []Signature      `json:"signatures,omitempty"`
	Content         string           `json:"content"`
}

// Clone returns a deep copy. Nil slices stay nil.
func (r *ExtractionResult) Clone() *ExtractionResult {
	if r == nil {
		return nil
	}
	out := *r
	out.ExtractedFields = slices.Clone(r.ExtractedFields)
	for i, f := range out.ExtractedFields {
		if f.BoundingBox != nil {
			box := *f.BoundingBox
			out.ExtractedFields[i].BoundingBox = &box
		}
	}
	out.Tables = slices.Clone(r.Tables)
	for i, t := range out.Tables {
		out.Tables[i].Headers = slices.Clone(t.Headers)
		out.Tables[i].Rows = slices.Clone(t.Rows)
		for j, row := range t.Rows {
			out.Tables[i].Rows[j] = slices.Clone(row)
		}
	}
	out.Logos = slices.Clone(r.Logos)
	out.Signatures = slices.Clone(r.Signatures)
	return &out
}

// Document is a session entry: the stored result plus upload metadata.
type Document struct {
	ID          string            `json:"id"`
	Filename    string            `json:"filename"`
	ContentType string            `json:"content_type"`
	FileSize    int64             `json:"file_size"`
	Result      *ExtractionResult `json:"data"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Clone returns a copy that shares nothing mutable with d.
func (d *Document) Clone() *Document {
	out := *d
	out.Result = d.Result.Clone()
	return &out
}

type ExtractRequest struct {
	File        []byte
	Filename    string
	ContentType string
}

type ExtractResponse struct {
	ID   string            `json:"id"`
	Data *ExtractionResult `json:"data"`
}

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is held by clients only; the server never stores history.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

type ChatRequest struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ChatFrame is the payload of one content event on the chat stream.
type ChatFrame struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ExportRow is the flat tabular shape of one extracted field.
type ExportRow struct {
	Label      string
	Value      string
	Confidence string
}

type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
