package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/document-extractor/internal/models"
)

func TestTextPrompt_TruncatesByRunes(t *testing.T) {
	p := TextPrompt("héllo wörld", 5)

	assert.Equal(t, "héllo", p.User)
	assert.Nil(t, p.Image)
	assert.Contains(t, p.System, "extractedFields")
}

func TestImagePrompt(t *testing.T) {
	p := ImagePrompt("image/png", []byte{0x89, 0x50})

	require.NotNil(t, p.Image)
	assert.Equal(t, "image/png", p.Image.MediaType)
	assert.Contains(t, p.User, "boundingBox")
}

func TestChatPrompt_GroundsInExtraction(t *testing.T) {
	result := &models.ExtractionResult{
		DocumentType: "receipt",
		ExtractedFields: []models.ExtractedField{
			{Label: "Merchant", Value: "Corner Cafe", Confidence: 0.9},
		},
	}

	p, err := ChatPrompt(result, "Who is the merchant?", 0)
	require.NoError(t, err)

	assert.Equal(t, "Who is the merchant?", p.User)
	assert.Contains(t, p.System, "Corner Cafe")
	assert.Contains(t, p.System, "receipt")
}

func TestChatPrompt_TruncatesContent(t *testing.T) {
	result := &models.ExtractionResult{
		DocumentType: "contract",
		Content:      "ÄBCDE" + strings.Repeat("x", 50) + "TAIL",
		ExtractedFields: []models.ExtractedField{
			{Label: "Party", Value: "Acme Ltd"},
		},
	}

	p, err := ChatPrompt(result, "Who signed?", 5)
	require.NoError(t, err)

	assert.Contains(t, p.System, `"ÄBCDE"`)
	assert.NotContains(t, p.System, "TAIL")
	assert.Contains(t, p.System, "Acme Ltd")
	assert.Contains(t, result.Content, "TAIL", "stored result must not be modified")
}
