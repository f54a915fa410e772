package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
	"github.com/bryanwahyu/clausecode/internal/infra/ai/prompt"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "Show the persona and analysis type matrix",
	Long: `Print every persona against every analysis type. A check mark means the pair has its
own prompt; a dot means it falls back to the Regular prompt for that type.`,
	Args: cobra.NoArgs,
	RunE: runPersonas,
}

func init() {
	rootCmd.AddCommand(personasCmd)
}

func runPersonas(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	types := analysis.Types()

	fmt.Fprintf(out, "%-10s", "")
	for _, t := range types {
		fmt.Fprintf(out, " %-15s", t)
	}
	fmt.Fprintln(out)

	for _, p := range analysis.Personas() {
		fmt.Fprintf(out, "%-10s", p)
		for _, t := range types {
			mark := "·"
			if t == analysis.TypeCustom {
				mark = "custom"
			} else if _, ok := prompt.Lookup(p, t); ok {
				mark = "✓"
			}
			fmt.Fprintf(out, " %-15s", mark)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%d prompts. Languages other than %s add a response language directive.\n",
		len(prompt.Keys()), analysis.DefaultLanguage)
	fmt.Fprintln(out, "Use --cite-cases with analyze or wizard to ask for real-world case citations.")
	return nil
}
