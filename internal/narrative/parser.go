package narrative

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/readiness-quiz/internal/archetype"
	"github.com/jonathan/readiness-quiz/internal/llm"
)

// ParseResult is either Parsed or Unparsed.
type ParseResult interface {
	// Text is the narrative body to display.
	Text() string
	isParseResult()
}

// Parsed is a response whose first line declared an archetype.
type Parsed struct {
	Label string
	Body  string
}

// Unparsed is a response without the marker line.
type Unparsed struct {
	Body string
}

// Text implements ParseResult.
func (p Parsed) Text() string { return p.Body }

// Text implements ParseResult.
func (u Unparsed) Text() string { return u.Body }

func (Parsed) isParseResult()   {}
func (Unparsed) isParseResult() {}

var (
	markerRe = regexp.MustCompile(`(?i)^(?:АРХЕТИП|ARCHETYPE)[*_]*\s*[:：]\s*(.*)$`)
	htmlRe   = regexp.MustCompile(`(?i)<(?:p|br|div|h[1-6]|ul|ol|li|strong|em|b|i|span)\b[^>]*>`)
)

// Parse splits a provider response into the declared archetype label and the
// body. The marker must be on the first non-empty line; markdown decoration
// around it is tolerated. Parse never fails: anything else is Unparsed.
func Parse(text string) ParseResult {
	text = FlattenHTML(llm.StripCodeFence(text))
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	first := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			first = i
			break
		}
	}
	if first < 0 {
		return Unparsed{Body: ""}
	}

	head := strings.TrimLeft(strings.TrimSpace(lines[first]), "#*_>` ")
	m := markerRe.FindStringSubmatch(head)
	if m == nil {
		return Unparsed{Body: strings.TrimSpace(text)}
	}
	label := archetype.Clean(m[1])
	if label == "" {
		return Unparsed{Body: strings.TrimSpace(strings.Join(lines[first+1:], "\n"))}
	}
	return Parsed{
		Label: label,
		Body:  strings.TrimSpace(strings.Join(lines[first+1:], "\n")),
	}
}

// FlattenHTML converts HTML fragments to plain text, keeping paragraph and
// line breaks. Text without HTML tags is returned unchanged.
func FlattenHTML(text string) string {
	if !htmlRe.MatchString(text) {
		return text
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	doc.Find("p, div, h1, h2, h3, h4, h5, h6, ul, ol").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n\n")
	})

	lines := strings.Split(doc.Find("body").Text(), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
