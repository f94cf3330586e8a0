package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newQuestionsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Print the question bank",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bank, err := loadBank(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(bank)
			}

			fmt.Fprintf(out, "Question bank %s (%d questions)\n", bank.Revision, len(bank.Questions))
			block := ""
			for _, q := range bank.Questions {
				if q.Block != "" && q.Block != block {
					block = q.Block
					fmt.Fprintf(out, "\n## %s\n", block)
				}
				fmt.Fprintf(out, "\n%s. %s\n", q.ID, q.Text)
				for _, o := range q.Options {
					fmt.Fprintf(out, "   %s) %s\n", o.Code, o.Text)
				}
				if !q.Scored() {
					fmt.Fprintln(out, "   (free text)")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the bank as JSON")
	return cmd
}
