package cli

import (
	"fmt"
	"strings"

	"github.com/penfold-notes/penfold/internal/budget"
	"github.com/penfold-notes/penfold/internal/model"
)

// RenderResult renders one classification result for the terminal.
func RenderResult(result model.ClassificationResult, needsReview bool) string {
	var sb strings.Builder

	sb.WriteString(BoldStyle.Render(string(result.Type)))
	sb.WriteString(SubtleStyle.Render(fmt.Sprintf("  %.2f via %s", result.Confidence, result.Method)))
	if result.PromptVersion != "" {
		sb.WriteString(SubtleStyle.Render("  prompt " + result.PromptVersion))
	}
	sb.WriteString("\n")
	sb.WriteString(SubtleStyle.Render(result.Reasoning))

	if needsReview {
		sb.WriteString("\n")
		sb.WriteString(FormatWarning("low confidence - confirm before filing"))
	}

	return RenderBox("Classification", sb.String())
}

// RenderSections renders the splitter's output, one block per section.
func RenderSections(sections []model.Section) string {
	var blocks []string
	for i, section := range sections {
		var sb strings.Builder

		header := fmt.Sprintf("Section %d of %d: %s", i+1, len(sections), section.SuggestedType)
		sb.WriteString(BoldStyle.Render(header))
		sb.WriteString(SubtleStyle.Render(fmt.Sprintf("  %.2f [%d:%d]", section.Confidence, section.Start, section.End)))
		sb.WriteString("\n")
		sb.WriteString(section.Content)

		if len(section.SuggestedTags) > 0 {
			sb.WriteString("\n")
			sb.WriteString(SubtleStyle.Render("tags: " + strings.Join(section.SuggestedTags, ", ")))
		}
		if section.ShouldAutoSplit {
			sb.WriteString("\n")
			sb.WriteString(FormatSuccess("auto-split"))
		} else {
			sb.WriteString("\n")
			sb.WriteString(SubtleStyle.Render("kept together"))
		}

		blocks = append(blocks, BoxStyle.Render(sb.String()))
	}
	return strings.Join(blocks, "\n")
}

// RenderBudget renders the rate-window occupancy and cost-ledger status.
func RenderBudget(remaining map[string]int, totals map[budget.Horizon]budget.LedgerTotals, status budget.BudgetStatus) string {
	var sb strings.Builder

	sb.WriteString(BoldStyle.Render("Rate windows"))
	sb.WriteString("\n")
	for _, window := range []string{"minute", "hour", "day"} {
		if left, ok := remaining[window]; ok {
			fmt.Fprintf(&sb, "  %-8s %d calls remaining\n", window, left)
		}
	}

	sb.WriteString("\n")
	sb.WriteString(BoldStyle.Render("Spend"))
	sb.WriteString("\n")
	for _, horizon := range []budget.Horizon{budget.HorizonDaily, budget.HorizonMonthly, budget.HorizonLifetime} {
		if t, ok := totals[horizon]; ok {
			fmt.Fprintf(&sb, "  %-9s $%.4f  (%d calls, %d in / %d out tokens)\n",
				horizon, t.CostUSD, t.Calls, t.InputTokens, t.OutputTokens)
		}
	}

	sb.WriteString("\n")
	switch status.State {
	case budget.Exceeded:
		sb.WriteString(FormatError(fmt.Sprintf("%s budget exceeded: $%.4f of $%.2f", status.Horizon, status.CurrentUSD, status.BudgetUSD)))
	case budget.Approaching:
		sb.WriteString(FormatWarning(fmt.Sprintf("%s spend approaching budget: $%.4f of $%.2f", status.Horizon, status.CurrentUSD, status.BudgetUSD)))
	default:
		sb.WriteString(FormatSuccess("within budget"))
	}

	return RenderBox("Budget", sb.String())
}
