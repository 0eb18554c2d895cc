// Package geministore implements the structured field-extraction and
// embedding capabilities on the Gemini API. It is the primary extractor in
// the parse stage's fallback chain and the production embedder.
package geministore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"resume-triage/internal/errs"
	"resume-triage/internal/extract"
)

const (
	extractionModel = "gemini-2.5-flash"
	embeddingModel  = "gemini-embedding-001"
)

const extractionPrompt = `Extract structured fields from the resume text below.
Return ONLY valid JSON with this shape, no markdown:
{
  "name": "", "email": "", "phone": "",
  "skills": [""],
  "work_experience": [{"title": "", "company": "", "start": "", "end": "", "description": "", "tenure_years": 0.0}],
  "education": [{"degree": "", "institution": "", "year": 0, "field": ""}],
  "total_years_exp": 0.0
}
Use empty strings / empty arrays for anything missing. tenure_years is the
length of each position in years; total_years_exp is their sum.

RESUME:
`

type GeminiClient struct {
	client *genai.Client
}

func New(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// ExtractFields asks the model for structured resume fields as JSON.
func (g *GeminiClient) ExtractFields(ctx context.Context, rawText string) (*extract.Fields, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, errs.Permanentf("cannot extract fields from empty text")
	}

	contents := []*genai.Content{
		genai.NewContentFromText(extractionPrompt+rawText, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, extractionModel, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, classify("field extraction", err)
	}

	var fields extract.Fields
	if err := json.Unmarshal([]byte(stripFences(result.Text())), &fields); err != nil {
		return nil, fmt.Errorf("gemini returned unparseable extraction: %w", err)
	}
	return &fields, nil
}

// Embed produces the raw (un-normalized) embedding vector for the text.
func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errs.Permanentf("cannot embed empty text")
	}

	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := g.client.Models.EmbedContent(ctx, embeddingModel, contents, nil)
	if err != nil {
		return nil, classify("embedding", err)
	}

	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini returned an empty embedding")
	}
	return result.Embeddings[0].Values, nil
}

// classify maps API errors onto the pipeline taxonomy: bad credentials and
// bad input cannot be fixed by retrying; everything else is transient.
func classify(op string, err error) error {
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return errs.Permanentf("gemini %s authentication failed: %v", op, err)
		case codes.InvalidArgument:
			return errs.Permanentf("gemini %s rejected input: %v", op, err)
		}
	}
	return fmt.Errorf("gemini %s failed: %w", op, err)
}

// stripFences drops a leading/trailing markdown code fence if the model
// wrapped its JSON anyway.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
