package stages

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	speakerLabelPattern = regexp.MustCompile(`(?im)^[ \t]*[*_]*(?:host|co-host|narrator|speaker(?:[ \t]*\d+)?|voice[- ]?over|announcer|guest|presenter|interviewer)[*_]*[ \t]*(?:\([^)\n]*\))?[ \t]*[*_]*:[*_]*[ \t]*`)
	bracketPattern      = regexp.MustCompile(`\[[^\[\]]*\]`)
	directionPattern    = regexp.MustCompile(`(?i)\((?:[^()]*\b(?:pause|pauses|music|sound|sfx|laugh|laughs|laughter|intro|outro|jingle|beat|applause|chuckle|chuckles|sigh|sighs|theme|fade|fades|transition|cue)\b[^()]*)\)`)
	spaceRunPattern     = regexp.MustCompile(`[ \t]+`)
	spaceBeforePunct    = regexp.MustCompile(`\s+([.,!?;:])`)
	paragraphBreak      = regexp.MustCompile(`\n[ \t]*\n\s*`)
	markdownParser      = goldmark.New().Parser()
)

// SanitizeScript turns a model reply into speakable prose: speaker labels,
// markdown formatting, bracketed directions, and parenthetical sound cues
// are removed. Paragraphs are separated by a blank line.
func SanitizeScript(raw string) string {
	raw = speakerLabelPattern.ReplaceAllString(raw, "")
	return stripDirections(PlainText(raw))
}

// PlainText renders markdown source as plain paragraphs. Headings, code,
// raw HTML, and thematic breaks are dropped; link text is kept.
func PlainText(source string) string {
	src := []byte(source)
	doc := markdownParser.Parse(text.NewReader(src))
	var paragraphs []string
	var current strings.Builder
	flush := func() {
		if p := strings.TrimSpace(spaceRunPattern.ReplaceAllString(current.String(), " ")); p != "" {
			paragraphs = append(paragraphs, p)
		}
		current.Reset()
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading, *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML, *ast.ThematicBreak:
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			if !entering {
				flush()
			}
		case *ast.Text:
			if entering {
				current.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					current.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				current.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				current.Write(node.Label(src))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	flush()
	return strings.Join(paragraphs, "\n\n")
}

func stripDirections(value string) string {
	paragraphs := strings.Split(value, "\n\n")
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = bracketPattern.ReplaceAllString(p, "")
		p = directionPattern.ReplaceAllString(p, "")
		p = spaceRunPattern.ReplaceAllString(p, " ")
		p = spaceBeforePunct.ReplaceAllString(p, "$1")
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
