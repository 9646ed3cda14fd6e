package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/penfold-notes/penfold/internal/cli"
	"github.com/penfold-notes/penfold/internal/engine"
	"github.com/penfold-notes/penfold/internal/model"
)

func classifyCmd() *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "classify [text]",
		Short: "Classify OCR note text into a note type",
		Long: `Classify runs the priority chain over the note text: explicit markers,
the remote model (when configured), command phrases, content heuristics,
and finally the general fallback.

With --file, the input is split on "---" lines and each block is
classified as a separate note.`,
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

			if filePath != "" {
				return classifyBatch(cmd.Context(), a, text)
			}
			return classifyOne(cmd.Context(), a, text)
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "file of notes separated by --- lines")
	return cmd
}

func classifyOne(ctx context.Context, a *app, text string) error {
	result := a.orchestrator.Classify(ctx, text)
	recordHistory(ctx, a, text, result)

	needsReview := engine.ShouldPromptManualReview(result, a.settings.Threshold, a.settings.AlwaysAsk)
	fmt.Println(cli.RenderResult(result, needsReview))
	return nil
}

func classifyBatch(ctx context.Context, a *app, text string) error {
	notes := splitNotes(text)
	if len(notes) == 0 {
		return fmt.Errorf("no notes found in input")
	}

	bar := progressbar.Default(int64(len(notes)), "classifying")
	results := make([]model.ClassificationResult, len(notes))
	for i, note := range notes {
		results[i] = a.orchestrator.Classify(ctx, note)
		recordHistory(ctx, a, note, results[i])
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	reviews := 0
	for i, result := range results {
		needsReview := engine.ShouldPromptManualReview(result, a.settings.Threshold, a.settings.AlwaysAsk)
		if needsReview {
			reviews++
		}

		marker := cli.FormatSuccess(string(result.Type))
		if needsReview {
			marker = cli.FormatWarning(string(result.Type))
		}
		fmt.Printf("%3d. %s  %.2f %s  %s\n",
			i+1, marker, result.Confidence, result.Method, snippet(notes[i]))
	}

	fmt.Println()
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d notes classified, %d need review", len(results), reviews)))
	return nil
}

func recordHistory(ctx context.Context, a *app, text string, result model.ClassificationResult) {
	if err := a.store.RecordClassification(ctx, text, result); err != nil {
		slog.Warn("failed to record classification history", "error", err)
	}
}

// splitNotes cuts a batch file into notes on --- separator lines.
func splitNotes(text string) []string {
	var notes []string
	for _, block := range strings.Split(text, "\n---") {
		block = strings.TrimPrefix(block, "---")
		if trimmed := strings.TrimSpace(block); trimmed != "" {
			notes = append(notes, trimmed)
		}
	}
	return notes
}

func snippet(text string) string {
	line := strings.Join(strings.Fields(text), " ")
	if len(line) > 60 {
		line = line[:60] + "…"
	}
	return line
}
