package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Probe asks the SDK for the model's metadata, which fails fast on a bad key
// or an unknown model id.
func Probe(ctx context.Context, apiKey, model string) (*genai.ModelInfo, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GOOGLE_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(strings.TrimSpace(model))
	if m == nil {
		return nil, fmt.Errorf("gemini: model is nil")
	}
	info, err := m.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("gemini: model %s: %w", model, err)
	}
	return info, nil
}
