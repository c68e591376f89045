// Package export renders notes as plain text, Markdown or a Word-compatible
// HTML document and writes them to a storage sink.
package export

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/zrl37/crystallize/internal/apperr"
	"github.com/zrl37/crystallize/internal/models"
	"github.com/zrl37/crystallize/internal/storage"
)

// Format is an export target.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatDoc      Format = "doc"
)

// DefaultFileName is used for notes without a title.
const DefaultFileName = "笔记导出"

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	return f == FormatText || f == FormatMarkdown || f == FormatDoc
}

// Ext returns the file extension for f.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatDoc:
		return ".doc"
	default:
		return ".txt"
	}
}

// Text is the clipboard form of a note: title, blank line, body.
func Text(n models.Note) string {
	return n.Title + "\n\n" + n.Content
}

// Markdown renders a note as a Markdown file with the title as heading.
func Markdown(n models.Note) string {
	return "# " + n.Title + "\n\n" + n.Content + "\n"
}

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

const docTemplate = `<html xmlns:o='urn:schemas-microsoft-com:office:office' xmlns:w='urn:schemas-microsoft-com:office:word' xmlns='http://www.w3.org/TR/REC-html40'>
<head><meta charset='utf-8'><title>%s</title>
<style>body { font-family: sans-serif; padding: 50px; line-height: 1.6; } h1 { color: #4F46E5; border-bottom: 2px solid #E5E7EB; padding-bottom: 10px; }</style>
</head><body>
<h1>%s</h1>
<div>%s</div>
</body></html>
`

// Doc renders a note as an HTML document Word can open. The body is treated
// as Markdown. The output starts with a UTF-8 byte order mark.
func Doc(n models.Note) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(n.Content), &body); err != nil {
		return nil, fmt.Errorf("export: render %s: %w", n.ID, err)
	}
	title := html.EscapeString(n.Title)
	var out bytes.Buffer
	out.WriteString("\ufeff")
	fmt.Fprintf(&out, docTemplate, title, title, body.String())
	return out.Bytes(), nil
}

// Render returns the document bytes of n in format f.
func Render(n models.Note, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return []byte(Text(n)), nil
	case FormatMarkdown:
		return []byte(Markdown(n)), nil
	case FormatDoc:
		return Doc(n)
	default:
		return nil, fmt.Errorf("export: format %q: %w", f, apperr.ErrInvalid)
	}
}

// Exporter writes rendered notes to a sink.
type Exporter struct {
	sink   storage.Sink
	logger *slog.Logger
}

// New returns an Exporter writing to sink.
func New(sink storage.Sink, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{sink: sink, logger: logger}
}

// Export writes one file per note and returns the file names in note order.
// Plain text is a clipboard format and is only accepted for a single note.
func (e *Exporter) Export(notes []models.Note, f Format) ([]string, error) {
	if len(notes) == 0 {
		return nil, nil
	}
	if !f.Valid() {
		return nil, fmt.Errorf("export: format %q: %w", f, apperr.ErrInvalid)
	}
	if f == FormatText && len(notes) > 1 {
		return nil, fmt.Errorf("export: batch export needs a file format: %w", apperr.ErrInvalid)
	}

	used := make(map[string]int, len(notes))
	names := make([]string, 0, len(notes))
	for _, n := range notes {
		data, err := Render(n, f)
		if err != nil {
			return names, err
		}
		name := FileName(n.Title, f, used)
		if err := e.sink.Write(name, data); err != nil {
			return names, fmt.Errorf("export: write %s: %w", name, err)
		}
		names = append(names, name)
	}
	e.logger.Info("notes exported", slog.Int("count", len(names)), slog.String("format", string(f)))
	return names, nil
}

// FileName builds a safe file name from a note title. used tracks names
// already taken in this batch; repeats get a numeric suffix.
func FileName(title string, f Format, used map[string]int) string {
	base := sanitize(title)
	if base == "" {
		base = DefaultFileName
	}
	name := base + f.Ext()
	if used != nil {
		used[name]++
		if k := used[name]; k > 1 {
			name = fmt.Sprintf("%s-%d%s", base, k, f.Ext())
		}
	}
	return name
}

func sanitize(title string) string {
	title = strings.TrimSpace(title)
	var b strings.Builder
	for _, r := range title {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\n', '\r', '\t':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ". ")
}
