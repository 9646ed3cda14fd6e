package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penfold-notes/penfold/internal/cli"
)

func budgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "budget",
		Short: "Show rate-window occupancy and remote-model spend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx := cmd.Context()
			remaining := a.limiter.Remaining(ctx)
			totals := a.ledger.Totals(ctx)
			status := a.ledger.Status(ctx)

			fmt.Println(cli.RenderBudget(remaining, totals, status))
			return nil
		},
	}
}
