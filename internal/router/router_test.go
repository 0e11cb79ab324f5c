package router

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/document-extractor/internal/analyzer"
	"github.com/BerylCAtieno/document-extractor/internal/extractor"
	"github.com/BerylCAtieno/document-extractor/internal/models"
	"github.com/BerylCAtieno/document-extractor/internal/services"
	"github.com/BerylCAtieno/document-extractor/internal/store"
	"github.com/BerylCAtieno/document-extractor/internal/utils"
)

type scriptedModel struct {
	response  string
	tokens    []string
	streamErr error
	calls     int
}

func (m *scriptedModel) Generate(ctx context.Context, prompt analyzer.Prompt, opts analyzer.GenerateOptions) (string, error) {
	m.calls++
	return m.response, nil
}

func (m *scriptedModel) GenerateStream(ctx context.Context, prompt analyzer.Prompt) (analyzer.TokenStream, error) {
	m.calls++
	return &scriptedStream{tokens: append([]string(nil), m.tokens...), err: m.streamErr}, nil
}

type scriptedStream struct {
	tokens []string
	err    error
}

func (s *scriptedStream) Next() (string, error) {
	if len(s.tokens) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	tok := s.tokens[0]
	s.tokens = s.tokens[1:]
	return tok, nil
}

func (s *scriptedStream) Close() error { return nil }

func newTestServer(t *testing.T, model analyzer.Model) (http.Handler, *store.Store) {
	t.Helper()
	logger := utils.NewNopLogger()
	st := store.New()
	decoder := extractor.DecoderFunc(func([]byte) (string, error) { return "Total: 10.00", nil })

	svc := Services{
		Documents: services.NewDocumentService(st, model, decoder, nil,
			services.ExtractionOptions{MaxTokens: 4096, Temperature: 0.1, Timeout: time.Second, MaxPromptChars: 1000}, logger),
		Chat:   services.NewChatService(st, model, time.Second, 0, logger),
		Export: services.NewExportService(st, logger),
	}
	return NewRouter(svc, 1<<20, logger), st
}

func uploadRequest(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t, &scriptedModel{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rr.Body.String())
}

func TestExtractThenDownload(t *testing.T) {
	model := &scriptedModel{response: `{"documentType":"receipt","extractedFields":[{"label":"A","value":"B","confidence":0.87}]}`}
	h, st := newTestServer(t, model)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, uploadRequest(t, "receipt.png", "image/png", []byte("png")))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp models.ExtractResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, "receipt", resp.Data.DocumentType)
	assert.Equal(t, 1, st.Len())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/download/"+resp.ID+"/csv", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=extracted.csv", rr.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Label", "Value", "Confidence"}, {"A", "B", "87%"}}, records)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/documents/"+resp.ID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"filename":"receipt.png"`)
}

func TestExtract_InfersMediaTypeFromExtension(t *testing.T) {
	model := &scriptedModel{response: `{"extractedFields":[]}`}
	h, _ := newTestServer(t, model)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, uploadRequest(t, "bill.pdf", "application/octet-stream", []byte("%PDF-1.4")))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp models.ExtractResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Total: 10.00", resp.Data.Content)
}

func TestExtract_RejectsUnsupportedType(t *testing.T) {
	model := &scriptedModel{response: `{"extractedFields":[]}`}
	h, st := newTestServer(t, model)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, uploadRequest(t, "notes.txt", "text/plain", []byte("hello")))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr), "Unsupported file type")
	assert.Equal(t, 0, model.calls)
	assert.Equal(t, 0, st.Len())
}

func TestExtract_MissingFile(t *testing.T) {
	h, _ := newTestServer(t, &scriptedModel{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No file uploaded", decodeError(t, rr))
}

func TestExtract_TooLarge(t *testing.T) {
	h, _ := newTestServer(t, &scriptedModel{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, uploadRequest(t, "big.png", "image/png", bytes.Repeat([]byte("x"), 3<<20)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr), "exceeds")
}

func TestChat_StreamsFramesThenSentinel(t *testing.T) {
	model := &scriptedModel{
		response: `{"extractedFields":[{"label":"Total","value":"$5"}]}`,
		tokens:   []string{"Hel", "", "lo"},
	}
	h, _ := newTestServer(t, model)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, uploadRequest(t, "r.png", "image/png", []byte("png")))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp models.ExtractResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	body := fmt.Sprintf(`{"id":%q,"message":"What is the total?"}`, resp.ID)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rr.Header().Get("Connection"))
	assert.True(t, rr.Flushed)

	want := "data: {\"content\":\"Hel\"}\n\n" +
		"data: {\"content\":\"lo\"}\n\n" +
		"data: [DONE]\n\n"
	assert.Equal(t, want, rr.Body.String())
	assert.Equal(t, 1, strings.Count(rr.Body.String(), "[DONE]"))
}

func TestChat_MidStreamFailureHasNoSentinel(t *testing.T) {
	model := &scriptedModel{tokens: []string{"par"}, streamErr: fmt.Errorf("connection reset")}
	h, st := newTestServer(t, model)

	id, err := st.Put(&models.Document{Result: &models.ExtractionResult{DocumentType: "document"}})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	body := fmt.Sprintf(`{"id":%q,"message":"hi"}`, id)
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	out := rr.Body.String()
	assert.True(t, strings.HasPrefix(out, "data: {\"content\":\"par\"}\n\n"))
	assert.Contains(t, out, `data: {"error":"Chat failed: connection reset"}`)
	assert.NotContains(t, out, "[DONE]")
}

func TestChat_Errors(t *testing.T) {
	h, _ := newTestServer(t, &scriptedModel{})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"unknown id", `{"id":"nope","message":"hi"}`, http.StatusNotFound},
		{"bad json", `{`, http.StatusBadRequest},
		{"empty message", `{"id":"nope","message":""}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.NotEmpty(t, decodeError(t, rr))
		})
	}
}

func TestDownload_Errors(t *testing.T) {
	h, st := newTestServer(t, &scriptedModel{})
	id, err := st.Put(&models.Document{Result: &models.ExtractionResult{}})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/download/missing/csv", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/download/"+id+"/pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr), "Invalid format")
}

func TestUnknownRoute(t *testing.T) {
	h, _ := newTestServer(t, &scriptedModel{})

	for _, path := range []string{"/api/summarize", "/nothing"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Not found", decodeError(t, rr))
	}
}

func TestOriginal_ArchiveDisabled(t *testing.T) {
	h, st := newTestServer(t, &scriptedModel{})
	id, err := st.Put(&models.Document{Filename: "a.png", Result: &models.ExtractionResult{}})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/original", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
