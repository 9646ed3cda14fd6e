package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penfold-notes/penfold/internal/cli"
)

func splitCmd() *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "split [text]",
		Short: "Detect whether one scan holds several distinct notes",
		Long: `Split scans the text for explicit type markers and, failing that, asks
the remote model whether the text holds multiple distinct notes. The
result is always at least one section covering the whole input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args, filePath)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			sections := a.splitter.Split(cmd.Context(), text)
			fmt.Println(cli.RenderSections(sections))
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "read note text from file")
	return cmd
}
