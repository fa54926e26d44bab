package clues

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	defaultRegion = "europe-west1"
	defaultModel  = "gemini-2.5-flash"
)

const cluePrompt = `Give a category hint of one to three words for the word %q, for a crossword.
Do not use the word itself or any part of it. Answer with the hint only, lowercase, no punctuation.`

// Gemini asks a Vertex AI Gemini model for category hints.
type Gemini struct {
	client    *genai.Client
	modelName string
}

// NewGemini creates a client using Application Default Credentials.
func NewGemini(ctx context.Context, projectID, region string) (*Gemini, error) {
	if region == "" {
		region = defaultRegion
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: region,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, modelName: defaultModel}, nil
}

func (g *Gemini) Clue(ctx context.Context, word string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{
			Role:  "user",
			Parts: []*genai.Part{{Text: fmt.Sprintf(cluePrompt, word)}},
		}},
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(0.2)),
			MaxOutputTokens: 16,
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty gemini response")
	}
	return text, nil
}
