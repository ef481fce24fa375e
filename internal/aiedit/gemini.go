package aiedit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"google.golang.org/genai"

	"image-workspace/internal/image"
)

// DefaultGeminiModel is the image-capable Gemini model used for edits.
const DefaultGeminiModel = "gemini-2.5-flash-image"

const upscalePrompt = "Upscale this image to a higher resolution. Preserve content, composition and colors exactly; only add detail and sharpness."

// ErrNoAPIKey is returned when the Gemini service has no API key.
var ErrNoAPIKey = errors.New("gemini API key is not set")

// GeminiService runs edits through the Gemini API.
type GeminiService struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiService creates a service for the given key and model. The client
// is created lazily on first use.
func NewGeminiService(apiKey, model string) *GeminiService {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiService{apiKey: apiKey, model: model}
}

// Name returns "gemini".
func (g *GeminiService) Name() string {
	return "gemini"
}

// Validate checks that an API key is configured.
func (g *GeminiService) Validate() error {
	if g.apiKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

func (g *GeminiService) ensureClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	g.client = client
	return client, nil
}

// Generate sends the prompt, the image, the mask and the linked images as one
// user turn and returns the first image and the concatenated text.
func (g *GeminiService) Generate(ctx context.Context, req *Request) (*Response, error) {
	parts, err := requestParts(req)
	if err != nil {
		return nil, err
	}
	cfg := &genai.GenerateContentConfig{ResponseModalities: []string{"TEXT", "IMAGE"}}
	if req.AspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: req.AspectRatio}
	}
	return g.generate(ctx, g.model, parts, cfg)
}

// Upscale asks the model to re-render src at a higher resolution.
func (g *GeminiService) Upscale(ctx context.Context, src image.ImageData, modelID string) (*Response, error) {
	raw, err := src.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	model := modelID
	if model == "" {
		model = g.model
	}
	parts := []*genai.Part{
		genai.NewPartFromText(upscalePrompt),
		genai.NewPartFromBytes(raw, src.MimeType),
	}
	return g.generate(ctx, model, parts, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
}

func (g *GeminiService) generate(ctx context.Context, model string, parts []*genai.Part, cfg *genai.GenerateContentConfig) (*Response, error) {
	client, err := g.ensureClient(ctx)
	if err != nil {
		return nil, err
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	result, err := client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	resp := responseFrom(result)
	log.Printf("AI: %s returned image=%v", model, resp.Image != nil)
	return resp, nil
}

// requestParts orders the parts as prompt, image, mask, linked images.
func requestParts(req *Request) ([]*genai.Part, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}

	add := func(label string, data image.ImageData) error {
		raw, err := data.Bytes()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", label, err)
		}
		parts = append(parts, genai.NewPartFromBytes(raw, data.MimeType))
		return nil
	}

	if err := add("image", req.Image); err != nil {
		return nil, err
	}
	if req.Mask != nil {
		parts = append(parts, genai.NewPartFromText("Mask: white marks the region to edit, black must stay unchanged."))
		if err := add("mask", *req.Mask); err != nil {
			return nil, err
		}
	}
	if len(req.LinkedImages) > 0 {
		parts = append(parts, genai.NewPartFromText("Reference images:"))
		for i, linked := range req.LinkedImages {
			if err := add(fmt.Sprintf("linked image %d", i), linked); err != nil {
				return nil, err
			}
		}
	}
	return parts, nil
}

// responseFrom extracts the first inline image and all text of the first
// candidate.
func responseFrom(result *genai.GenerateContentResponse) *Response {
	resp := &Response{}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return resp
	}
	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" {
			text += part.Text
		}
		if part.InlineData != nil && resp.Image == nil && len(part.InlineData.Data) > 0 {
			data := image.NewImageData(part.InlineData.Data, part.InlineData.MIMEType)
			resp.Image = &data
		}
	}
	if text != "" {
		resp.Text = &text
	}
	return resp
}
