package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/domain/history"
	"github.com/bryanwahyu/clausecode/internal/render"
)

var (
	historyLimitFlag   int
	historyPersonaFlag string
	historyTypeFlag    string
	historyUserFlag    string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved analyses",
	Long: `List analyses saved on the backend, newest first, as summary cards.

Use 'clausecode history show <id>' for the full result and
'clausecode history delete <id>' to remove one.`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved analysis",
	Long:  `Delete a saved analysis. Backends with API keys configured need --api-key.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", history.DefaultLimit, "Maximum number of analyses")
	historyCmd.Flags().StringVarP(&historyPersonaFlag, "persona", "p", "", "Only analyses by this persona")
	historyCmd.Flags().StringVarP(&historyTypeFlag, "type", "t", "", "Only analyses of this type")
	historyCmd.Flags().StringVar(&historyUserFlag, "user", "", "Only analyses saved by this user id")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	f := history.Filter{Limit: historyLimitFlag, UserID: historyUserFlag}
	if historyPersonaFlag != "" {
		p, _ := analysis.ParsePersona(historyPersonaFlag)
		f.Agent = string(p)
	}
	if historyTypeFlag != "" {
		t, _ := analysis.ParseType(historyTypeFlag)
		f.AnalysisType = string(t)
	}

	records, err := newClient().ListAnalyses(ctx, f)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No saved analyses.")
		return nil
	}
	for _, rec := range records {
		card, err := recordCard(rec)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s  %s\n%s\n\n", rec.ID, recordHeading(rec), card)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	rec, err := newClient().GetAnalysis(ctx, history.RecordID(args[0]))
	if err != nil {
		return err
	}
	body, err := render.Markdown(render.Render(analysis.Result{Text: rec.ResultText}))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, recordHeading(rec))
	if rec.PageURL != "" {
		fmt.Fprintln(out, rec.PageURL)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, body)
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	if err := newClient().DeleteAnalysis(ctx, history.RecordID(args[0])); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

// recordHeading reads like "📊 Lawyer - Summary · Acme Terms · 2026-01-02 15:04".
func recordHeading(rec *history.Record) string {
	title := rec.PageTitle
	if title == "" {
		title = "Document Analysis"
	}
	return fmt.Sprintf("📊 %s - %s · %s · %s", rec.Agent, analysis.Type(rec.AnalysisType).Title(), title,
		rec.Timestamp.Local().Format("2006-01-02 15:04"))
}

// recordCard previews the saved result. The stored text is markup, so it is converted first
// and the card cuts plain text.
func recordCard(rec *history.Record) (string, error) {
	plain, err := render.Markdown(rec.ResultText)
	if err != nil {
		return "", err
	}
	return render.Markdown(render.Card(analysis.Result{Text: plain}, rec.Agent))
}
