package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penfold-notes/penfold/internal/cli"
)

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent classification results",
		Long: `History lists recent classification results with the prompt version
that produced each remote result, for offline accuracy analysis across
prompt revisions.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			records, err := a.store.ListClassifications(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println(cli.SubtleStyle.Render("no classifications recorded yet"))
				return nil
			}

			for _, rec := range records {
				promptTag := rec.PromptVersion
				if promptTag == "" {
					promptTag = "-"
				}
				fmt.Printf("%s  %-13s %.2f  %-13s %-4s  %s\n",
					rec.CreatedAt.Format("2006-01-02 15:04"),
					rec.Type, rec.Confidence, rec.Method, promptTag,
					snippet(rec.Snippet))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to show")
	return cmd
}
