package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/document-extractor/internal/models"
	"github.com/BerylCAtieno/document-extractor/internal/store"
	"github.com/BerylCAtieno/document-extractor/internal/utils"
)

func TestExport_CSV(t *testing.T) {
	st := store.New()
	id, err := st.Put(&models.Document{Result: &models.ExtractionResult{
		ExtractedFields: []models.ExtractedField{{Label: "A", Value: "B", Confidence: 0.87}},
	}})
	require.NoError(t, err)

	svc := NewExportService(st, utils.NewNopLogger())
	file, err := svc.Export(context.Background(), id, "csv")
	require.NoError(t, err)

	assert.Equal(t, "extracted.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "Label,Value,Confidence\nA,B,87%\n", string(file.Data))

	again, err := svc.Export(context.Background(), id, "CSV")
	require.NoError(t, err)
	assert.Equal(t, file.Data, again.Data)
}

func TestExport_XLSX(t *testing.T) {
	st := store.New()
	id := seedDocument(t, st)

	file, err := NewExportService(st, utils.NewNopLogger()).Export(context.Background(), id, "xlsx")
	require.NoError(t, err)
	assert.Equal(t, "extracted.xlsx", file.Filename)
	assert.NotEmpty(t, file.Data)
}

func TestExport_Errors(t *testing.T) {
	st := store.New()
	id := seedDocument(t, st)
	svc := NewExportService(st, utils.NewNopLogger())

	_, err := svc.Export(context.Background(), id, "pdf")
	assert.ErrorIs(t, err, utils.ErrUnsupportedFormat)

	_, err = svc.Export(context.Background(), "missing", "csv")
	assert.ErrorIs(t, err, utils.ErrSessionNotFound)

	// Lookup happens before format validation.
	_, err = svc.Export(context.Background(), "missing", "pdf")
	assert.ErrorIs(t, err, utils.ErrSessionNotFound)
}
