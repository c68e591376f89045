package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	mcp       bool
	logOutput io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMCP serves the MCP tools over stdio instead of starting the HTTP
// server. Logs move to stderr.
func WithMCP() Option {
	return func(a *application) {
		a.mcp = true
	}
}

// WithLogOutput sets where JSON logs are written.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}
