// Package archetype holds the canonical archetype enumeration and resolves
// free-form labels (typically from model output) onto it.
package archetype

import (
	"strings"
	"unicode"
)

// Archetype is one canonical profile archetype.
type Archetype struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Canonical lists the archetypes in precedence order. Earlier entries win ties.
var Canonical = []Archetype{
	{Name: "Оптимизатор", Code: "optimizer"},
	{Name: "Визионер", Code: "strategist"},
	{Name: "Прагматик", Code: "pragmatist"},
	{Name: "Предприниматель", Code: "pioneer"},
	{Name: "Энтузиаст", Code: "enthusiast"},
	{Name: "Скептик", Code: "skeptic"},
	{Name: "Наблюдатель", Code: "observer"},
	{Name: "Универсал", Code: "generalist"},
	{Name: "Аналитик", Code: "analyst"},
	{Name: "Искатель", Code: "seeker"},
}

// DefaultName is the archetype used when nothing else resolves.
const DefaultName = "Оптимизатор"

// DefaultSynonyms maps near-equivalent labels, including the tier display
// names and tier codes, onto canonical archetypes.
var DefaultSynonyms = map[string]string{
	"Практик":       "Прагматик",
	"Эксперт":       "Оптимизатор",
	"Исследователь": "Искатель",
	"Стратег":       "Визионер",
	"Координатор":   "Универсал",
	"expert":        "Оптимизатор",
	"practitioner":  "Прагматик",
	"explorer":      "Искатель",
}

// Codes returns the archetype codes in precedence order.
func Codes() []string {
	out := make([]string, len(Canonical))
	for i, a := range Canonical {
		out[i] = a.Code
	}
	return out
}

// Names returns the archetype display names in precedence order.
func Names() []string {
	out := make([]string, len(Canonical))
	for i, a := range Canonical {
		out[i] = a.Name
	}
	return out
}

// ByCode looks up an archetype by its internal code.
func ByCode(code string) (Archetype, bool) {
	for _, a := range Canonical {
		if a.Code == code {
			return a, true
		}
	}
	return Archetype{}, false
}

// IsCanonical reports whether name is exactly a canonical archetype name.
func IsCanonical(name string) bool {
	for _, a := range Canonical {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Precedence returns the position of code in the precedence order, or
// len(Canonical) for unknown codes.
func Precedence(code string) int {
	for i, a := range Canonical {
		if a.Code == code {
			return i
		}
	}
	return len(Canonical)
}

const decoration = "*_`#>~\"'«»“”„[]()<>"

// Clean strips markdown decoration, quotes and trailing punctuation from a label.
func Clean(label string) string {
	s := strings.TrimSpace(label)
	for {
		prev := s
		s = strings.Trim(s, decoration)
		s = strings.TrimRightFunc(s, func(r rune) bool {
			return (unicode.IsPunct(r) && r != '-') || unicode.IsSpace(r)
		})
		s = strings.TrimSpace(s)
		if s == prev {
			break
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func letterCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
