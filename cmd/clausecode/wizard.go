package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/clausecode/internal/tui"
	"github.com/bryanwahyu/clausecode/internal/wizard"
)

var (
	wizardCiteCasesFlag  bool
	wizardStructuredFlag bool
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Analyze a document interactively",
	Long: `Step through an analysis in the terminal:

  1. Load the document from a web page, a PDF or Word file, or pasted text
  2. Pick a persona
  3. Pick an analysis type (custom lets you write the prompt)
  4. Pick the response language
  5. Read the result, ask follow-up questions, save it

Press n on the results screen to start a new analysis of the same document.`,
	Args: cobra.NoArgs,
	RunE: runWizard,
}

func init() {
	wizardCmd.Flags().BoolVar(&wizardCiteCasesFlag, "cite-cases", false, "Ask for real-world case citations")
	wizardCmd.Flags().BoolVar(&wizardStructuredFlag, "structured", false, "Request the structured result form")
	rootCmd.AddCommand(wizardCmd)
}

func runWizard(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	// the alternate screen owns the terminal, so logs are dropped unless -v
	var logOut io.Writer = io.Discard
	if verboseFlag {
		logOut = cmd.ErrOrStderr()
	}
	sess := newSession(wizard.LayoutCompact, wizardCiteCasesFlag, wizardStructuredFlag, logOut)
	return tui.Run(ctx, sess)
}
