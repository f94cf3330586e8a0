package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/readiness-quiz/internal/quiz"
)

// ForBank builds the named scheme for a question bank. Points and weights
// carried by the bank replace the built-in tables. The resulting table must
// cover exactly the bank's scored questions and options.
func ForBank(name string, bank *quiz.Bank) (Scheme, error) {
	if bank == nil {
		return nil, &SchemeError{Scheme: name, Message: "question bank is required"}
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SchemeScalar:
		table, err := pointsFromBank(bank)
		if err != nil {
			return nil, err
		}
		if table == nil {
			table = DefaultPointTable
		}
		if err := checkCoverage(SchemeScalar, bank, shapeOf(table)); err != nil {
			return nil, err
		}
		s, err := NewScalar(table)
		if err != nil {
			return nil, err
		}
		s.unscored = idSet(bank.Unscored())
		return s, nil

	case SchemeVector:
		table, err := weightsFromBank(bank)
		if err != nil {
			return nil, err
		}
		if table == nil {
			table = DefaultWeightTable
		}
		if err := checkCoverage(SchemeVector, bank, shapeOf(table)); err != nil {
			return nil, err
		}
		v, err := NewVector(table, 0)
		if err != nil {
			return nil, err
		}
		v.unscored = idSet(bank.Unscored())
		return v, nil

	default:
		return nil, &SchemeError{Scheme: name, Message: "unknown scheme"}
	}
}

// pointsFromBank returns nil when the bank carries no points at all.
func pointsFromBank(bank *quiz.Bank) (PointTable, error) {
	table := make(PointTable)
	var missing []string
	for _, q := range bank.Scored() {
		for _, o := range q.Options {
			if o.Points == nil {
				missing = append(missing, q.ID+"/"+o.Code)
				continue
			}
			if table[q.ID] == nil {
				table[q.ID] = make(map[string]int, len(q.Options))
			}
			table[q.ID][o.Code] = *o.Points
		}
	}
	if len(table) == 0 {
		return nil, nil
	}
	if len(missing) > 0 {
		return nil, &SchemeError{Scheme: SchemeScalar, Message: "options without points: " + strings.Join(missing, ", ")}
	}
	return table, nil
}

// weightsFromBank returns nil when the bank carries no weights at all.
func weightsFromBank(bank *quiz.Bank) (WeightTable, error) {
	table := make(WeightTable)
	var missing []string
	for _, q := range bank.Scored() {
		for _, o := range q.Options {
			if o.Weights == nil {
				missing = append(missing, q.ID+"/"+o.Code)
				continue
			}
			if table[q.ID] == nil {
				table[q.ID] = make(map[string]map[string]int, len(q.Options))
			}
			table[q.ID][o.Code] = o.Weights
		}
	}
	if len(table) == 0 {
		return nil, nil
	}
	if len(missing) > 0 {
		return nil, &SchemeError{Scheme: SchemeVector, Message: "options without weights: " + strings.Join(missing, ", ")}
	}
	return table, nil
}

func shapeOf[V any](table map[string]map[string]V) map[string]map[string]bool {
	shape := make(map[string]map[string]bool, len(table))
	for q, codes := range table {
		shape[q] = make(map[string]bool, len(codes))
		for code := range codes {
			shape[q][code] = true
		}
	}
	return shape
}

// checkCoverage reports every scored bank option missing from the table and
// every table entry the bank does not ask.
func checkCoverage(scheme string, bank *quiz.Bank, shape map[string]map[string]bool) error {
	var problems []string

	scored := make(map[string]bool)
	for _, q := range bank.Scored() {
		scored[q.ID] = true
		row, ok := shape[q.ID]
		if !ok {
			problems = append(problems, fmt.Sprintf("question %s has no scoring entry", q.ID))
			continue
		}
		for _, o := range q.Options {
			if !row[o.Code] {
				problems = append(problems, fmt.Sprintf("option %s/%s has no scoring entry", q.ID, o.Code))
			}
		}
	}

	for id, row := range shape {
		if !scored[id] {
			problems = append(problems, fmt.Sprintf("table question %s is not a scored question of the bank", id))
			continue
		}
		q, _ := bank.Question(id)
		for code := range row {
			if _, ok := q.Option(code); !ok {
				problems = append(problems, fmt.Sprintf("table option %s/%s is not offered by the bank", id, code))
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return &SchemeError{
		Scheme:  scheme,
		Message: fmt.Sprintf("table does not match question bank %s: %s", bank.Revision, strings.Join(problems, "; ")),
	}
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// unknownAnswers reports non-blank answers to questions neither scored nor
// listed as unscored.
func unknownAnswers(answers map[string]string, scored func(string) bool, unscored map[string]bool) []string {
	var ids []string
	for id, v := range answers {
		if strings.TrimSpace(v) == "" || scored(id) || unscored[id] {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return questionLess(ids[i], ids[j]) })
	return ids
}
