package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/saulo-duarte/commitments-api/internal/config"
	"google.golang.org/genai"
)

type Provider interface {
	Generate(ctx context.Context, req Request) (*Reply, error)
}

type geminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &geminiProvider{client: client, model: model}, nil
}

func (p *geminiProvider) Generate(ctx context.Context, req Request) (*Reply, error) {
	log := config.WithContext(ctx)
	prompt := req.System + "\n\n" + req.Prompt

	result, err := p.client.Models.GenerateContent(
		ctx,
		p.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		log.WithError(err).Error("Gemini request failed")
		return nil, fmt.Errorf("generate content: %w", err)
	}

	raw := result.Text()
	log.Debugf("[CHAT] Raw Gemini response:\n%s", raw)
	if raw == "" {
		return nil, errors.New("empty model response")
	}

	return decodeReply(raw)
}

// decodeReply tolerates the markdown fences models like to wrap JSON in.
func decodeReply(raw string) (*Reply, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.Trim(clean, "`")

	var reply Reply
	if err := json.Unmarshal([]byte(clean), &reply); err != nil {
		return nil, fmt.Errorf("decode model reply: %w", err)
	}
	return &reply, nil
}
