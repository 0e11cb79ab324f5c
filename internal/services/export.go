package services

import (
	"context"
	"time"

	"github.com/BerylCAtieno/document-extractor/internal/export"
	"github.com/BerylCAtieno/document-extractor/internal/models"
	"github.com/BerylCAtieno/document-extractor/internal/store"
	"github.com/BerylCAtieno/document-extractor/internal/utils"
)

type ExportService interface {
	Export(ctx context.Context, id, format string) (*models.ExportFile, error)
}

type exportService struct {
	store  *store.Store
	logger *utils.Logger
}

func NewExportService(st *store.Store, logger *utils.Logger) ExportService {
	return &exportService{store: st, logger: logger}
}

func (s *exportService) Export(ctx context.Context, id, format string) (*models.ExportFile, error) {
	doc, ok := s.store.Get(id)
	if !ok {
		return nil, utils.NewSessionNotFoundError(id)
	}

	f, ok := export.ParseFormat(format)
	if !ok {
		return nil, utils.NewUnsupportedFormatError(format)
	}

	start := time.Now()
	data, err := export.Write(f, export.Rows(doc.Result.ExtractedFields))
	if err != nil {
		s.logger.Error("export.failed", "id", id, "format", f, "error", err)
		return nil, utils.NewInternalError("Failed to export data")
	}

	s.logger.Info("export.ok",
		"id", id,
		"format", f,
		"rows", len(doc.Result.ExtractedFields),
		"bytes", len(data),
		"elapsed_ms", time.Since(start).Milliseconds())

	return &models.ExportFile{
		Filename:    f.Filename(),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}
