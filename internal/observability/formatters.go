// Package observability provides logging, metrics and formatted output for
// verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/readiness-quiz/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, ending with "..." when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// pad right-pads s with spaces to n runes.
func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintScore outputs the score vector and the profile it classifies to.
func (p *Printer) PrintScore(vec types.ScoreVector, profile types.Profile) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Scheme:     %s\n", vec.Scheme))
	sb.WriteString(fmt.Sprintf("Raw score:  %d / %d\n", vec.RawScore, vec.MaxScore))
	sb.WriteString(fmt.Sprintf("Readiness:  %d%%\n", vec.Readiness))
	sb.WriteString(fmt.Sprintf("Profile:    %s (%s)\n", profile.DisplayName, profile.Code))
	sb.WriteString(fmt.Sprintf("Tier:       %s\n", profile.Tier))

	if len(vec.Accumulators) > 0 {
		sb.WriteString("\nVectors:\n")
		codes := make([]string, 0, len(vec.Accumulators))
		for code := range vec.Accumulators {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			marker := " "
			if code == vec.Dominant {
				marker = "*"
			}
			sb.WriteString(fmt.Sprintf(" %s %-12s %d\n", marker, code, vec.Accumulators[code]))
		}
	}
	if vec.Degenerate {
		sb.WriteString("\n⚠ no signal in answers, default profile used\n")
	}

	if len(vec.Ignored) > 0 {
		sb.WriteString("\nIgnored answers:\n")
		count := min(len(vec.Ignored), maxItemsToShow)
		for i := 0; i < count; i++ {
			ig := vec.Ignored[i]
			sb.WriteString(fmt.Sprintf("  • %s=%q (%s)\n", ig.QuestionID, ig.Code, ig.Reason))
		}
		if len(vec.Ignored) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(vec.Ignored)-maxItemsToShow))
		}
	}

	p.printBox("READINESS PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRecommendations outputs the next steps for a tier.
func (p *Printer) PrintRecommendations(items []string) {
	if len(items) == 0 {
		return
	}
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("• %s\n", item))
	}
	p.printBox("RECOMMENDATIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult outputs a stored result with the head of its narrative.
func (p *Printer) PrintResult(result *types.StoredResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("State:      %s\n", result.State))
	sb.WriteString(fmt.Sprintf("Archetype:  %s\n", result.Archetype))
	sb.WriteString(fmt.Sprintf("Readiness:  %d%%\n", result.Readiness))
	sb.WriteString(fmt.Sprintf("Attempts:   %d\n", result.Attempts))

	if result.Failure != nil {
		sb.WriteString(fmt.Sprintf("\n⚠ %s", result.Failure.Kind))
		if result.Failure.Status != 0 {
			sb.WriteString(fmt.Sprintf(" (%d)", result.Failure.Status))
		}
		sb.WriteString("\n")
		if result.Failure.Detail != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", result.Failure.Detail))
		}
	}

	if result.Narrative != "" {
		sb.WriteString("\n")
		lines := strings.Split(strings.TrimSpace(result.Narrative), "\n")
		count := min(len(lines), maxItemsToShow)
		for _, line := range lines[:count] {
			sb.WriteString(line + "\n")
		}
		if len(lines) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more lines\n", len(lines)-maxItemsToShow))
		}
	}

	p.printBox("RESULT", strings.TrimSuffix(sb.String(), "\n"))
}
