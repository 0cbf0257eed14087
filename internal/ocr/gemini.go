package ocr

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const transcribePrompt = `Transcribe all text on this bank statement page exactly as printed.
Keep one output line per printed line, in reading order, and keep the original languages
(Chinese, English, Malay). Do not translate, summarize, or add commentary. Do not use markdown.
If the page has no text, return an empty response.`

// Gemini implements Engine with a multimodal Gemini model. It is an
// alternative to Tesseract for scans Tesseract reads poorly.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed OCR engine.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Name() string { return "gemini" }

// Recognize sends the grayscale page to the model and returns its transcription.
func (g *Gemini) Recognize(ctx context.Context, in Input) (string, error) {
	prompt := transcribePrompt
	if len(in.Languages) > 0 {
		prompt += "\nExpected languages (tesseract codes): " + strings.Join(in.Languages, ", ")
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: "image/png", Data: in.Image}},
			{Text: prompt},
		},
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini page %d: %w", in.Page, err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
