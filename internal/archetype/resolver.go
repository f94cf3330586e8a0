package archetype

import (
	"sort"
	"strings"
)

// Method names how a label was resolved.
type Method string

// Resolution methods, in the order they are tried.
const (
	MethodExact           Method = "exact"
	MethodCaseInsensitive Method = "case_insensitive"
	MethodSynonym         Method = "synonym"
	MethodCode            Method = "code"
	MethodFuzzy           Method = "fuzzy"
	MethodFallback        Method = "fallback"
	MethodDefault         Method = "default"
)

// minFuzzyLetters is the shortest label considered for substring matching.
const minFuzzyLetters = 3

// Resolution is the result of resolving a label. Name is always canonical.
type Resolution struct {
	Input  string `json:"input"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	Method Method `json:"method"`
}

// Resolver maps arbitrary labels onto the canonical archetypes.
type Resolver struct {
	synonyms    map[string]string
	synonymKeys []string
	defaultName string
}

// NewResolver creates a resolver with the default synonym table.
func NewResolver() *Resolver {
	return NewResolverWithSynonyms(DefaultSynonyms)
}

// NewResolverWithSynonyms creates a resolver with a custom synonym table.
// Entries pointing at non-canonical names are dropped.
func NewResolverWithSynonyms(synonyms map[string]string) *Resolver {
	table := make(map[string]string, len(synonyms))
	for k, v := range synonyms {
		if IsCanonical(v) {
			table[strings.ToLower(Clean(k))] = v
		}
	}
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	// Longer synonyms first so "исследователь" is not shadowed by a shorter key.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return &Resolver{synonyms: table, synonymKeys: keys, defaultName: DefaultName}
}

// Resolve resolves a label: exact, case-insensitive, synonym, internal code,
// fuzzy substring, then the default archetype. It never fails and is
// idempotent on canonical names.
func (r *Resolver) Resolve(label string) Resolution {
	if res, ok := r.lookup(label); ok {
		return res
	}
	return r.result(label, r.defaultName, MethodDefault)
}

// ResolveOr resolves label and, when it does not match anything, resolves
// fallback instead (typically the local profile label) before giving up
// with the default archetype.
func (r *Resolver) ResolveOr(label, fallback string) Resolution {
	if res, ok := r.lookup(label); ok {
		return res
	}
	if fb, ok := r.lookup(fallback); ok {
		return r.result(label, fb.Name, MethodFallback)
	}
	return r.result(label, r.defaultName, MethodDefault)
}

func (r *Resolver) lookup(label string) (Resolution, bool) {
	clean := Clean(label)
	if clean == "" {
		return Resolution{}, false
	}
	lower := strings.ToLower(clean)

	for _, a := range Canonical {
		if a.Name == clean {
			return r.result(label, a.Name, MethodExact), true
		}
	}
	for _, a := range Canonical {
		if strings.ToLower(a.Name) == lower {
			return r.result(label, a.Name, MethodCaseInsensitive), true
		}
	}
	if name, ok := r.synonyms[lower]; ok {
		return r.result(label, name, MethodSynonym), true
	}
	for _, a := range Canonical {
		if a.Code == lower {
			return r.result(label, a.Name, MethodCode), true
		}
	}

	if letterCount(clean) < minFuzzyLetters {
		return Resolution{}, false
	}
	for _, a := range Canonical {
		name := strings.ToLower(a.Name)
		if strings.Contains(name, lower) || strings.Contains(lower, name) {
			return r.result(label, a.Name, MethodFuzzy), true
		}
	}
	for _, syn := range r.synonymKeys {
		if strings.Contains(lower, syn) {
			return r.result(label, r.synonyms[syn], MethodFuzzy), true
		}
	}
	for _, a := range Canonical {
		if strings.Contains(lower, a.Code) {
			return r.result(label, a.Name, MethodFuzzy), true
		}
	}
	return Resolution{}, false
}

func (r *Resolver) result(input, name string, method Method) Resolution {
	code := ""
	for _, a := range Canonical {
		if a.Name == name {
			code = a.Code
			break
		}
	}
	return Resolution{Input: input, Name: name, Code: code, Method: method}
}
