// Package parser reads and writes the inline markup of note bodies: AI
// directives, dividers, tags and headings.
package parser

import (
	"regexp"
	"strings"
)

// DirectiveTagPrefix opens a bracketed directive.
const DirectiveTagPrefix = "[AI指令:"

// Divider is the horizontal rule inserted by InsertDivider.
const Divider = "\n---\n"

var (
	// [AI指令: instruction] or a "// AI: instruction" line.
	directiveRe = regexp.MustCompile(`\[AI指令:\s*(.*?)\]|//\s*AI:\s*(.*?)(?:\n|$)`)
	tagRe       = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_][\p{L}\p{N}_/-]*)`)
	headingRe   = regexp.MustCompile(`^#{1,6}\s+(.*)$`)
)

// DirectiveForm distinguishes the two directive markups.
type DirectiveForm string

const (
	FormTag     DirectiveForm = "tag"
	FormComment DirectiveForm = "comment"
)

// Directive is one inline instruction found in a note.
type Directive struct {
	Form        DirectiveForm `json:"form"`
	Instruction string        `json:"instruction"`
	// Start and End delimit the markup in runes.
	Start int `json:"start"`
	End   int `json:"end"`
	// Target is the text the directive applies to: everything up to the next
	// directive, trimmed.
	Target string `json:"target"`
}

// Result holds what Parse extracts from a note body.
type Result struct {
	Title      string
	Tags       []string
	Directives []Directive
}

// Parse extracts the title, tags and directives of body.
func Parse(body string) *Result {
	return &Result{
		Title:      DeriveTitle(body),
		Tags:       extractTags(body),
		Directives: Directives(body),
	}
}

// Directives lists the directives of body in order.
func Directives(body string) []Directive {
	locs := directiveRe.FindAllStringSubmatchIndex(body, -1)
	out := make([]Directive, 0, len(locs))
	for i, loc := range locs {
		d := Directive{
			Start: runeOffset(body, loc[0]),
			End:   runeOffset(body, loc[1]),
		}
		if loc[2] >= 0 {
			d.Form = FormTag
			d.Instruction = strings.TrimSpace(body[loc[2]:loc[3]])
		} else {
			d.Form = FormComment
			d.Instruction = strings.TrimSpace(body[loc[4]:loc[5]])
		}
		next := len(body)
		if i+1 < len(locs) {
			next = locs[i+1][0]
		}
		d.Target = strings.TrimSpace(body[loc[1]:next])
		out = append(out, d)
	}
	return out
}

// StripDirectives removes all directive markup from body.
func StripDirectives(body string) string {
	return directiveRe.ReplaceAllStringFunc(body, func(m string) string {
		if strings.HasSuffix(m, "\n") && !strings.HasPrefix(m, "[") {
			return "\n"
		}
		return ""
	})
}

// InsertDirective replaces the rune range [start, end) of body with a
// bracketed directive, padding it with a space on either side unless the
// neighbour is already whitespace or a boundary. It returns the new body and
// the cursor position: after the tag when instruction is set, otherwise
// inside the brackets so the user can type it.
func InsertDirective(body string, start, end int, instruction string) (string, int) {
	r := []rune(body)
	start, end = clampRange(start, end, len(r))
	tag := DirectiveTagPrefix + " " + instruction + "]"

	prefix, suffix := "", ""
	if start > 0 && r[start-1] != '\n' && r[start-1] != ' ' {
		prefix = " "
	}
	if end < len(r) && r[end] != '\n' && r[end] != ' ' {
		suffix = " "
	}
	out := string(r[:start]) + prefix + tag + suffix + string(r[end:])

	tagLen := len([]rune(tag))
	cursor := start + len(prefix) + tagLen - 1
	if instruction != "" {
		cursor = start + len(prefix) + tagLen + len(suffix)
	}
	return out, cursor
}

// InsertDivider replaces the rune range [start, end) of body with Divider and
// returns the new body and the cursor after it.
func InsertDivider(body string, start, end int) (string, int) {
	r := []rune(body)
	start, end = clampRange(start, end, len(r))
	out := string(r[:start]) + Divider + string(r[end:])
	return out, start + len([]rune(Divider))
}

// DeriveTitle returns the first Markdown heading of body, otherwise the first
// non-empty line, otherwise "".
func DeriveTitle(body string) string {
	first := ""
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := headingRe.FindStringSubmatch(trimmed); m != nil {
			return strings.TrimSpace(m[1])
		}
		if first == "" && trimmed != "" {
			first = trimmed
		}
	}
	return first
}

// extractTags collects deduplicated inline #tags. Heading markers are not tags.
func extractTags(body string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		t := m[1]
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func clampRange(start, end, n int) (int, int) {
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if end < start {
		end = start
	}
	if end > n {
		end = n
	}
	return start, end
}

func runeOffset(s string, byteOff int) int {
	return len([]rune(s[:byteOff]))
}
