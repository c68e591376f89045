package provider

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAI creates an OpenAI client from cfg.
func NewOpenAI(cfg Config) *OpenAI {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(oc), model: model, temperature: cfg.Temperature}
}

// Generate asks the model for the next reply.
func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	return o.complete(ctx, OpenAIMessages(req))
}

// Organize runs the reorganization prompt over body.
func (o *OpenAI) Organize(ctx context.Context, body string) (string, error) {
	return o.complete(ctx, []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleUser,
		Content: OrganizePrompt(body),
	}})
}

func (o *OpenAI) complete(ctx context.Context, msgs []openai.ChatCompletionMessage) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    msgs,
		Temperature: o.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("provider: openai completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// OpenAIMessages converts a request into chat completion messages: the
// persona instruction as the system message, then history, then the prompt.
// Turns with images use multi-part content with data URLs.
func OpenAIMessages(req Request) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.Instruction != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.Instruction,
		})
	}
	for _, t := range req.History {
		if t.Text == "" && len(t.Images) == 0 {
			continue
		}
		msgs = append(msgs, openAIMessage(t))
	}
	return append(msgs, openAIMessage(Turn{Speaker: SpeakerUser, Text: req.Prompt, Images: req.Images}))
}

func openAIMessage(t Turn) openai.ChatCompletionMessage {
	role := openai.ChatMessageRoleUser
	if t.Speaker == SpeakerModel {
		role = openai.ChatMessageRoleAssistant
	}
	if len(t.Images) == 0 {
		return openai.ChatCompletionMessage{Role: role, Content: t.Text}
	}
	parts := make([]openai.ChatMessagePart, 0, len(t.Images)+1)
	if t.Text != "" {
		parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: t.Text})
	}
	for _, img := range t.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + img.MimeType + ";base64," + img.Data,
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	return openai.ChatCompletionMessage{Role: role, MultiContent: parts}
}
