package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BerylCAtieno/document-extractor/internal/analyzer"
	"github.com/BerylCAtieno/document-extractor/internal/extractor"
	"github.com/BerylCAtieno/document-extractor/internal/models"
	"github.com/BerylCAtieno/document-extractor/internal/storage"
	"github.com/BerylCAtieno/document-extractor/internal/store"
	"github.com/BerylCAtieno/document-extractor/internal/utils"
)

type DocumentService interface {
	Extract(ctx context.Context, req *models.ExtractRequest) (*models.ExtractResponse, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	GetOriginal(ctx context.Context, id string) (*storage.Object, error)
}

type ExtractionOptions struct {
	MaxTokens      int
	Temperature    float32
	Timeout        time.Duration
	MaxPromptChars int
}

type documentService struct {
	store   *store.Store
	model   analyzer.Model
	decoder extractor.PDFDecoder
	archive storage.Archive
	opts    ExtractionOptions
	logger  *utils.Logger
	nowFunc func() time.Time
}

// NewDocumentService wires the extraction pipeline. archive may be nil, in
// which case originals are not kept.
func NewDocumentService(st *store.Store, model analyzer.Model, decoder extractor.PDFDecoder, archive storage.Archive, opts ExtractionOptions, logger *utils.Logger) DocumentService {
	if decoder == nil {
		decoder = extractor.Default
	}
	return &documentService{
		store:   st,
		model:   model,
		decoder: decoder,
		archive: archive,
		opts:    opts,
		logger:  logger,
		nowFunc: time.Now,
	}
}

func (s *documentService) Extract(ctx context.Context, req *models.ExtractRequest) (*models.ExtractResponse, error) {
	mediaType := NormalizeMediaType(req.ContentType)
	if !IsSupportedMediaType(mediaType) {
		s.logger.Warn("Unsupported content type", "content_type", req.ContentType, "filename", req.Filename)
		return nil, utils.NewUnsupportedMediaTypeError(req.ContentType)
	}
	if len(req.File) == 0 {
		return nil, utils.NewBadRequestError("Uploaded file is empty")
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	s.logger.Info("extract.start", "filename", req.Filename, "content_type", mediaType, "size", len(req.File))

	var (
		result *models.ExtractionResult
		err    error
	)
	if mediaType == MediaTypePDF {
		result, err = s.extractPDF(ctx, req)
	} else {
		result, err = s.extractImage(ctx, req, mediaType)
	}
	if err != nil {
		s.logger.Error("extract.failed", "filename", req.Filename, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	doc := &models.Document{
		Filename:    req.Filename,
		ContentType: mediaType,
		FileSize:    int64(len(req.File)),
		Result:      result,
		CreatedAt:   s.nowFunc(),
	}
	id, err := s.store.Put(doc)
	if err != nil {
		s.logger.Error("extract.store_failed", "error", err)
		return nil, utils.NewAppError(http.StatusInternalServerError, utils.ErrIDCollision, "Failed to store extraction", err)
	}

	s.archiveOriginal(ctx, id, req, mediaType)

	s.logger.Info("extract.ok",
		"id", id,
		"document_type", result.DocumentType,
		"fields", len(result.ExtractedFields),
		"tables", len(result.Tables),
		"elapsed_ms", time.Since(start).Milliseconds())

	return &models.ExtractResponse{ID: id, Data: result}, nil
}

func (s *documentService) extractPDF(ctx context.Context, req *models.ExtractRequest) (*models.ExtractionResult, error) {
	text, err := s.decoder.Decode(req.File)
	if err != nil {
		s.logger.Warn("pdf decode failed", "filename", req.Filename, "error", err)
		return nil, utils.NewAppError(http.StatusBadRequest, utils.ErrExtractionFailed,
			"No text could be extracted from the PDF. The file may be scanned, empty or corrupted", err)
	}

	raw, err := s.model.Generate(ctx, analyzer.TextPrompt(text, s.opts.MaxPromptChars), analyzer.GenerateOptions{
		Structured:  true,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return nil, s.modelError(ctx, err)
	}

	result, err := s.parse(raw)
	if err != nil {
		return nil, err
	}
	result.Content = text
	return result, nil
}

func (s *documentService) extractImage(ctx context.Context, req *models.ExtractRequest, mediaType string) (*models.ExtractionResult, error) {
	raw, err := s.model.Generate(ctx, analyzer.ImagePrompt(mediaType, req.File), analyzer.GenerateOptions{
		Structured:  true,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return nil, s.modelError(ctx, err)
	}

	return s.parse(raw)
}

// parse reads the structured form, repairing objects that miss the schema,
// and degrades to the line heuristic only for text that is not JSON. Only an
// empty response is a failure.
func (s *documentService) parse(raw string) (*models.ExtractionResult, error) {
	result, notes, err := analyzer.ParseExtraction(raw)
	if err == nil {
		if len(notes) > 0 {
			s.logger.Warn("extract.structured_repaired", "repairs", notes)
		}
		return result, nil
	}

	if strings.TrimSpace(raw) == "" {
		return nil, utils.NewExtractionFailedError(errors.New("model returned an empty response"))
	}

	s.logger.Warn("extract.structured_parse_failed", "error", err, "response_len", len(raw))
	return analyzer.FallbackExtraction(raw), nil
}

func (s *documentService) modelError(ctx context.Context, err error) error {
	if errors.Is(err, utils.ErrUpstreamUnavailable) {
		return utils.NewUpstreamUnavailableError(err)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return utils.NewExtractionFailedError(fmt.Errorf("model API did not respond within %s", s.opts.Timeout))
	}
	return utils.NewExtractionFailedError(err)
}

func (s *documentService) archiveOriginal(ctx context.Context, id string, req *models.ExtractRequest, mediaType string) {
	if s.archive == nil {
		return
	}
	key := storage.ObjectKey(id, req.Filename)
	if err := s.archive.Upload(ctx, key, req.File, mediaType); err != nil {
		s.logger.Warn("Failed to archive original", "id", id, "key", key, "error", err)
	}
}

func (s *documentService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, ok := s.store.Get(id)
	if !ok {
		return nil, utils.NewSessionNotFoundError(id)
	}
	return doc, nil
}

func (s *documentService) GetOriginal(ctx context.Context, id string) (*storage.Object, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.archive == nil {
		return nil, utils.NewAppError(http.StatusNotFound, storage.ErrObjectNotFound, "Original documents are not archived", nil)
	}

	obj, err := s.archive.Download(ctx, storage.ObjectKey(doc.ID, doc.Filename))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, utils.NewAppError(http.StatusNotFound, storage.ErrObjectNotFound, "Original document not found", err)
	}
	if err != nil {
		s.logger.Error("Failed to download original", "id", id, "error", err)
		return nil, utils.NewInternalError("Failed to retrieve original document")
	}
	if obj.ContentType == "" {
		obj.ContentType = doc.ContentType
	}
	return obj, nil
}
