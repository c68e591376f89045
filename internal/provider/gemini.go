package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini talks to the Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	search      bool
}

// NewGemini creates a Gemini client from cfg.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("provider: gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model, temperature: cfg.Temperature, search: cfg.Search}, nil
}

// Generate asks the model for the next reply. Grounding sources, when the
// search tool is on and the answer cites any, are appended as a list.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, t := range req.History {
		c, err := geminiContent(t)
		if err != nil {
			return "", err
		}
		if c != nil {
			contents = append(contents, c)
		}
	}
	current, err := geminiContent(Turn{Speaker: SpeakerUser, Text: req.Prompt, Images: req.Images})
	if err != nil {
		return "", err
	}
	if current != nil {
		contents = append(contents, current)
	}

	temp := g.temperature
	cfg := &genai.GenerateContentConfig{Temperature: &temp}
	if req.Instruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.Instruction, genai.RoleUser)
	}
	if g.search {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("provider: gemini generate: %w", err)
	}
	text := res.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return AppendSources(text, geminiSources(res)), nil
}

// Organize runs the reorganization prompt over body.
func (g *Gemini) Organize(ctx context.Context, body string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(OrganizePrompt(body), genai.RoleUser)}
	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("provider: gemini organize: %w", err)
	}
	text := res.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func geminiContent(t Turn) (*genai.Content, error) {
	var parts []*genai.Part
	if t.Text != "" {
		parts = append(parts, genai.NewPartFromText(t.Text))
	}
	for _, img := range t.Images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return nil, fmt.Errorf("provider: decode %s image: %w", img.MimeType, err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, img.MimeType))
	}
	if len(parts) == 0 {
		return nil, nil
	}
	role := genai.Role(genai.RoleUser)
	if t.Speaker == SpeakerModel {
		role = genai.RoleModel
	}
	return genai.NewContentFromParts(parts, role), nil
}

func geminiSources(res *genai.GenerateContentResponse) []Source {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var out []Source
	for _, chunk := range res.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		out = append(out, Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return out
}

// Source is a web page a grounded answer cites.
type Source struct {
	Title string
	URI   string
}

// AppendSources adds a "资料来源" bullet list to text. Sources without a title
// or URI are skipped and duplicate URIs are listed once.
func AppendSources(text string, sources []Source) string {
	seen := make(map[string]struct{}, len(sources))
	var lines []string
	for _, s := range sources {
		if s.Title == "" || s.URI == "" {
			continue
		}
		if _, dup := seen[s.URI]; dup {
			continue
		}
		seen[s.URI] = struct{}{}
		lines = append(lines, "* ["+s.Title+"]("+s.URI+")")
	}
	if len(lines) == 0 {
		return text
	}
	return text + "\n\n**资料来源:**\n" + strings.Join(lines, "\n")
}
