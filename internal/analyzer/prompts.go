package analyzer

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/BerylCAtieno/document-extractor/internal/models"
)

const imageExtractionPrompt = `Analyze this document image and extract ALL information with high accuracy.

IMPORTANT INSTRUCTIONS:
1. Extract EVERY piece of text, including headers, labels, values, logos, signatures, stamps
2. Identify the document type (invoice, receipt, form, etc.)
3. For each piece of information, identify if it's a label (field name) or a value (field content)
4. Detect and note any logos, signatures, stamps, or special marks
5. Preserve the exact text as it appears (including case, punctuation, special characters)
6. Note the approximate position of each element (top-left, center, bottom-right, etc.)
7. Give an approximate bounding box for each field as fractions of the page (0 to 1)
8. Identify table structures if present

Respond ONLY with a valid JSON object (no markdown, no code blocks) in this EXACT format:
{
  "documentType": "invoice/receipt/form/etc",
  "extractedFields": [
    {
      "label": "exact label text as shown",
      "value": "exact value text as shown",
      "type": "text/logo/signature/stamp",
      "position": "top-left/top-center/top-right/middle-left/center/middle-right/bottom-left/bottom-center/bottom-right",
      "confidence": 0.95,
      "boundingBox": {"x": 0.1, "y": 0.1, "width": 0.2, "height": 0.05}
    }
  ],
  "tables": [
    {"position": "position description", "headers": ["col1", "col2"], "rows": [["value1", "value2"]]}
  ],
  "logos": [
    {"description": "company logo description", "position": "position", "text": "any text in logo"}
  ],
  "signatures": [
    {"description": "signature description", "position": "position", "signatory": "name if readable"}
  ],
  "fullText": "complete document text"
}

Be extremely thorough - do not miss ANY text or visual element!`

const textExtractionPrompt = `Extract all label-value pairs from this document text.
Identify actual field labels and their corresponding values.
Respond ONLY with a JSON object in this format:
{"documentType": "invoice/receipt/form/etc", "extractedFields": [{"label": "field name", "value": "field value", "confidence": 0.95}]}`

// ImagePrompt asks the vision model to enumerate every visible field.
func ImagePrompt(mediaType string, data []byte) Prompt {
	return Prompt{
		User:  imageExtractionPrompt,
		Image: &Image{MediaType: mediaType, Data: data},
	}
}

// TextPrompt asks for label/value pairs from decoded document text,
// truncated to maxChars runes.
func TextPrompt(text string, maxChars int) Prompt {
	return Prompt{
		System: textExtractionPrompt,
		User:   truncateRunes(text, maxChars),
	}
}

// ChatPrompt grounds the assistant in the stored extraction. The document
// text is cut to maxChars runes; maxChars <= 0 leaves it whole.
func ChatPrompt(result *models.ExtractionResult, message string, maxChars int) (Prompt, error) {
	grounded := *result
	grounded.Content = truncateRunes(result.Content, maxChars)

	data, err := json.MarshalIndent(&grounded, "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("failed to marshal extraction: %w", err)
	}

	system := fmt.Sprintf(`You are helping analyze a document. Here's the extracted data:
%s

Answer questions based on this data. If the answer is not in the data, say so.`, data)

	return Prompt{System: system, User: message}, nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
