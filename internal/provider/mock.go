package provider

import (
	"context"
	"sync"

	"github.com/zrl37/crystallize/internal/parser"
)

// Mock is an offline backend. By default it echoes the prompt and organizes a
// note by stripping its directives. Tests swap in their own funcs.
type Mock struct {
	GenerateFunc func(ctx context.Context, req Request) (string, error)
	OrganizeFunc func(ctx context.Context, body string) (string, error)

	mu    sync.Mutex
	calls []Request
}

// NewMock returns a Mock with the default behaviour.
func NewMock() *Mock { return &Mock{} }

// Generate records req and answers it.
func (m *Mock) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	fn := m.GenerateFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "收到：" + req.Prompt, nil
}

// Organize answers with OrganizeFunc, or the body without directive markup.
func (m *Mock) Organize(ctx context.Context, body string) (string, error) {
	m.mu.Lock()
	fn := m.OrganizeFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, body)
	}
	return parser.StripDirectives(body), nil
}

// Calls returns the generation requests seen so far.
func (m *Mock) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}
