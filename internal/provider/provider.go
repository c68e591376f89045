// Package provider is the port to the generative model backends. It builds the
// provider-neutral conversation from chat messages and ships it to Gemini, an
// OpenAI-compatible endpoint, or an in-process mock.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kinds of backend.
const (
	KindGemini = "gemini"
	KindOpenAI = "openai"
	KindMock   = "mock"
)

// Speaker is the side of the conversation a turn belongs to.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerModel Speaker = "model"
)

// ErrEmptyResponse is returned when a backend answers with no text.
var ErrEmptyResponse = errors.New("provider: empty response")

// Image is an inline image: base64 payload plus its mime type.
type Image struct {
	MimeType string
	Data     string
}

// Turn is one history entry as the backend sees it.
type Turn struct {
	Speaker Speaker
	Text    string
	Images  []Image
}

// Request is one generation call for a persona.
type Request struct {
	Instruction string
	History     []Turn
	Prompt      string
	Images      []Image
}

// Generator produces a persona's reply.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Organizer rewrites a note body, executing its inline directives.
type Organizer interface {
	Organize(ctx context.Context, body string) (string, error)
}

// Provider is a backend that can do both.
type Provider interface {
	Generator
	Organizer
}

// Config selects and configures a backend.
type Config struct {
	Kind        string  `yaml:"kind"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	// Search enables Google Search grounding on Gemini.
	Search bool `yaml:"search"`
}

// New builds the backend named by cfg.Kind.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Kind) {
	case KindGemini:
		return NewGemini(ctx, cfg)
	case KindOpenAI:
		return NewOpenAI(cfg), nil
	case KindMock, "":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("provider: unknown kind %q", cfg.Kind)
	}
}

// OrganizePrompt wraps a note body in the reorganization instructions.
func OrganizePrompt(body string) string {
	return `你是一位专业的编辑和组织者。

用户提供了一些笔记，其中包含标记为 "[AI指令: ...]" 或 "// AI:" 的行内指令。
这些指令是关于如何处理其周围文本（通常是紧随其后的文本）的特殊任务。

你的任务：
1. 解析以下内容。
2. 识别以 "[AI指令: " 或 "// AI:" 开头的指令行。
3. 执行这些指令（例如：“总结”、“合并”、“格式化为表格”、“翻译”）。
4. 如果某些部分没有指令，请逻辑化地组织它们以提高可读性。
5. 重要提示：在输出中删除所有指令标记（包括方括号和前缀）。请使用中文输出。

待整理的内容：
` + body + "\n"
}
