package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jonathan/readiness-quiz/internal/funnel"
	"github.com/jonathan/readiness-quiz/internal/observability"
	"github.com/jonathan/readiness-quiz/internal/quiz"
	"github.com/jonathan/readiness-quiz/internal/scoring"
	"github.com/jonathan/readiness-quiz/internal/types"
)

func newScoreCmd() *cobra.Command {
	var (
		answersPath string
		asJSON      bool
		narrate     bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a completed quiz",
		Long: `Score an answers file (a JSON object of question id to option code, or
{"answers": {...}}) and print the readiness profile. With --narrate the
narrative is requested too, using an in-memory session store.`,
		Example: `  quiz_agent score --answers answers.json
  quiz_agent score --answers - --json < answers.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			answers, err := readAnswers(cmd.InOrStdin(), answersPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if narrate {
				return runNarrate(cmd, answers, asJSON)
			}

			bank, err := loadBank(cfg)
			if err != nil {
				return err
			}
			scheme, err := scoring.ForBank(cfg.ScoringScheme, bank)
			if err != nil {
				return err
			}

			report := bank.CheckAnswers(answers)
			vec := scoring.Score(answers, scheme)
			profile := scoring.Classify(vec, scoring.DefaultThresholds)
			recs := scoring.Recommendations(profile.Tier)

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Score           types.ScoreVector    `json:"score"`
					Profile         types.Profile        `json:"profile"`
					Problems        []quiz.AnswerProblem `json:"problems,omitempty"`
					Recommendations []string             `json:"recommendations"`
				}{vec, profile, report.Problems, recs})
			}

			for _, p := range report.Problems {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", p)
			}
			printer := observability.NewPrinter(out)
			printer.PrintScore(vec, profile)
			printer.PrintRecommendations(recs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&answersPath, "answers", "a", "", "Path to the answers JSON file, or - for stdin")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of the profile box")
	cmd.Flags().BoolVar(&narrate, "narrate", false, "Also request the narrative")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

// runNarrate runs the whole funnel for one submission against a throwaway store.
func runNarrate(cmd *cobra.Command, answers types.AnswerSet, asJSON bool) error {
	local := cfg
	local.StoreBackend = "memory"

	a, err := buildApp(cmd.Context(), local, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.funnel.Submit(cmd.Context(), funnel.SubmitInput{Answers: answers})
	if err != nil {
		return err
	}
	outcome, err := a.funnel.Generate(cmd.Context(), res.SessionID)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}
	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintScore(res.Score, res.Profile)
	printer.PrintResult(&outcome.Result)
	printer.PrintRecommendations(res.Recommendations)
	return nil
}

// readAnswers decodes an answers file. Both a bare answer map and an object
// with an "answers" field are accepted.
func readAnswers(stdin io.Reader, path string) (types.AnswerSet, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}

	var wrapped struct {
		Answers types.AnswerSet `json:"answers"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && !wrapped.Answers.Empty() {
		return wrapped.Answers, nil
	}

	var answers types.AnswerSet
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("failed to parse answers JSON: %w", err)
	}
	if answers.Empty() {
		return nil, fmt.Errorf("answers file %s has no answers", path)
	}
	return answers, nil
}
