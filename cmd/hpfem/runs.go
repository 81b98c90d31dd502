package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rwcarlsen/hpfem/runstore"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List recorded adapt runs or show the history of one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("db")
		store, err := runstore.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 1 {
			return showRun(os.Stdout, store, args[0])
		}
		return listRuns(os.Stdout, store)
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().String("db", "hpfem.db", "SQLite database of recorded runs")
}

func listRuns(w io.Writer, store *runstore.Store) error {
	runs, err := store.Runs()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROBLEM\tCONVERGED\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%v\t%v\t%v\t%v\n", r.ID, r.Problem, r.Converged, r.Created.Format(time.RFC3339))
	}
	return tw.Flush()
}

func showRun(w io.Writer, store *runstore.Store, id string) error {
	h, err := store.History(id)
	if err != nil {
		return err
	}
	return printReport(w, historyMarkdown("Run "+id, h))
}
