package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ocrdoc/internal/language"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the available recognition languages",
	Example: `  ocrdoc languages
  ocrdoc languages --json`,
	Args: cobra.NoArgs,
	RunE: runLanguages,
}

func init() {
	rootCmd.AddCommand(languagesCmd)
	languagesCmd.Flags().Bool("json", false, "Output as JSON")
}

func runLanguages(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(language.All())
	}

	defaults := make(map[string]bool, len(language.DefaultCodes))
	for _, c := range language.DefaultCodes {
		defaults[c] = true
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tLANGUAGE\tHINT\tDEFAULT")
	for _, l := range language.All() {
		mark := ""
		if defaults[l.Code] {
			mark = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n", l.Code, l.Tag, l.DisplayName, l.Hint, mark)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\nCombine several codes with commas, e.g. --lang %s\n", strings.Join(language.DefaultCodes, ","))
	return nil
}
