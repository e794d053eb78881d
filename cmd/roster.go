package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize/english"
	"github.com/kozaktomas/face-attendance/internal/roster"
	"github.com/spf13/cobra"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Validate and print the student roster",
	Long: `Load the roster spreadsheet and print every student with their CID and UID.
Fails when a Name, CID or UID column is missing or a name appears twice.`,
	RunE: runRoster,
}

func init() {
	rootCmd.AddCommand(rosterCmd)

	rosterCmd.Flags().String("path", "", "Roster xlsx file (defaults to ROSTER_PATH)")
	rosterCmd.Flags().String("sheet", "", "Sheet name (defaults to the first sheet)")
}

func runRoster(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := stringFlag(cmd, "path", cfg.Roster.Path)
	sheet := stringFlag(cmd, "sheet", cfg.Roster.Sheet)

	r, err := roster.Load(path, sheet)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCID\tUID")
	for _, e := range r.Entries() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.CID, e.UID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s\n", english.Plural(r.Len(), "student", ""))
	return nil
}
