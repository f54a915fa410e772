package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/clausecode/internal/application"
	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/infra/ai/prompt"
	"github.com/bryanwahyu/clausecode/internal/render"
	"github.com/bryanwahyu/clausecode/internal/wizard"
)

var (
	analyzeFileFlag       string
	analyzeURLFlag        string
	analyzeTextFlag       string
	analyzePersonaFlag    string
	analyzeTypeFlag       string
	analyzeCustomFlag     string
	analyzeLanguageFlag   string
	analyzeFormatFlag     string
	analyzeSaveFlag       bool
	analyzeAskFlag        []string
	analyzeCiteCasesFlag  bool
	analyzeStructuredFlag bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a document non-interactively",
	Long: `Analyze a terms and conditions document in one go.

The document comes from exactly one of --file (PDF or Word), --url or --text
(use --text - to read standard input). The result is printed as markdown by default.

Examples:
  clausecode analyze --url example.com/terms --persona Lawyer --type malicious
  clausecode analyze --file tos.pdf --persona Bob --type summary --language Spanish --save
  clausecode analyze --text - --persona CEO --type custom --custom "Who owns my data?" < tos.txt
  clausecode analyze --url example.com/terms --persona Regular --type summary \
      --ask "Can they sell my data?" --ask "How do I cancel?"`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFileFlag, "file", "", "PDF or Word document to analyze")
	f.StringVar(&analyzeURLFlag, "url", "", "Web page to fetch and analyze")
	f.StringVar(&analyzeTextFlag, "text", "", "Document text, or - to read standard input")
	f.StringVarP(&analyzePersonaFlag, "persona", "p", "", "Persona: Regular, Bob, Lawyer, CEO or brainrot")
	f.StringVarP(&analyzeTypeFlag, "type", "t", "", "Analysis type: "+typeNames())
	f.StringVar(&analyzeCustomFlag, "custom", "", "Instruction for --type custom")
	f.StringVarP(&analyzeLanguageFlag, "language", "l", analysis.DefaultLanguage, "Response language")
	f.StringVarP(&analyzeFormatFlag, "format", "f", "markdown", "Output format: markdown, html or card")
	f.BoolVar(&analyzeSaveFlag, "save", false, "Save the analysis on the backend")
	f.StringArrayVar(&analyzeAskFlag, "ask", nil, "Follow-up question to ask after the analysis (repeatable)")
	f.BoolVar(&analyzeCiteCasesFlag, "cite-cases", false, "Ask for real-world case citations")
	f.BoolVar(&analyzeStructuredFlag, "structured", false, "Request the structured result form")
	_ = analyzeCmd.MarkFlagRequired("persona")
	_ = analyzeCmd.MarkFlagRequired("type")
	analyzeCmd.MarkFlagsMutuallyExclusive("file", "url", "text")
	analyzeCmd.MarkFlagsOneRequired("file", "url", "text")

	rootCmd.AddCommand(analyzeCmd)
}

func typeNames() string {
	var names []string
	for _, t := range analysis.Types() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := checkFormat(analyzeFormatFlag); err != nil {
		return err
	}
	persona, ok := analysis.ParsePersona(analyzePersonaFlag)
	if !ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "unknown persona %q, Regular prompts will be used\n", analyzePersonaFlag)
	}
	typ, ok := analysis.ParseType(analyzeTypeFlag)
	if !ok {
		return fmt.Errorf("unknown analysis type %q (want %s)", analyzeTypeFlag, typeNames())
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	sess := newSession(wizard.LayoutCompact, analyzeCiteCasesFlag, analyzeStructuredFlag, cmd.ErrOrStderr())
	nav := sess.Navigator()

	if err := loadDocument(ctx, sess, cmd.InOrStdin()); err != nil {
		return err
	}
	if !nav.Next() {
		return errors.New(nav.Status())
	}

	nav.SelectPersona(persona)
	nav.Next()
	nav.SelectType(typ)
	if typ == analysis.TypeCustom {
		nav.SetCustomPrompt(analyzeCustomFlag)
	}
	nav.Next()
	nav.SelectLanguage(analyzeLanguageFlag)

	res, err := sess.Analyze(ctx)
	if err != nil {
		return errors.New(nav.Status())
	}

	out := cmd.OutOrStdout()
	text, err := formatResult(res, string(persona), analyzeFormatFlag)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, nav.State().Selections.Title())
	fmt.Fprintln(out)
	fmt.Fprintln(out, text)

	for _, q := range analyzeAskFlag {
		answer, err := sess.Ask(ctx, q)
		if err != nil {
			return errors.New(nav.Status())
		}
		formatted, err := formatAnswer(answer, analyzeFormatFlag)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n❓ %s\n\n%s\n", strings.TrimSpace(q), formatted)
	}

	if analyzeSaveFlag {
		saved, err := sess.Save(ctx)
		if err != nil {
			return errors.New(nav.Status())
		}
		where := "nowhere (backend storage is disabled)"
		if len(saved.SavedTo) > 0 {
			where = strings.Join(saved.SavedTo, ", ")
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s id=%s saved to %s\n", nav.Status(), saved.ID, where)
	}
	return nil
}

func newSession(layout wizard.Layout, citeCases, structured bool, logOut io.Writer) *wizard.Session {
	logger := newLogger(logOut)
	opts := []prompt.Option{prompt.WithLogger(logger)}
	if citeCases {
		opts = append(opts, prompt.WithCaseCitations())
	}
	return wizard.NewSession(
		wizard.NewNavigator(layout),
		newClient(),
		prompt.NewResolver(opts...),
		application.SystemClock{},
		logger,
		wizard.Config{Structured: structured},
	)
}

func loadDocument(ctx context.Context, sess *wizard.Session, stdin io.Reader) error {
	nav := sess.Navigator()
	switch {
	case analyzeFileFlag != "":
		f, err := os.Open(analyzeFileFlag)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := sess.LoadFile(ctx, filepath.Base(analyzeFileFlag), f); err != nil {
			return errors.New(nav.Status())
		}
	case analyzeURLFlag != "":
		if err := sess.LoadURL(ctx, analyzeURLFlag); err != nil {
			return errors.New(nav.Status())
		}
	default:
		text := analyzeTextFlag
		if text == "-" {
			raw, err := io.ReadAll(stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(raw)
		}
		sess.Paste(text)
	}
	return nil
}

func checkFormat(format string) error {
	switch format {
	case "markdown", "md", "html", "card":
		return nil
	}
	return fmt.Errorf("unknown format %q (want markdown, html or card)", format)
}

// formatResult renders a result in the requested output format.
func formatResult(res analysis.Result, agent, format string) (string, error) {
	switch format {
	case "html":
		return render.Render(res), nil
	case "card":
		return render.Markdown(render.Card(res, agent))
	}
	return render.Markdown(render.Render(res))
}

func formatAnswer(answer, format string) (string, error) {
	if format == "html" {
		return answer, nil
	}
	return render.Markdown(answer)
}
