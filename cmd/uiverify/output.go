package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hairizuanbinnoorazman/ui-verify/testrun"
)

func printJSON(w io.Writer, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal JSON: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}

func printTable(out io.Writer, headers []string, rows [][]string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

func printRunSummary(w io.Writer, run *testrun.TestRun) {
	passed, failed := run.StepCounts()
	fmt.Fprintf(w, "\nRun %s (%s): %s in %s, %d step(s) passed, %d failed\n",
		run.Name, run.ID, strings.ToUpper(string(run.Status)), run.Duration().Round(time.Millisecond), passed, failed)
	if run.Error != "" {
		fmt.Fprintf(w, "Failure [%s] at %q: %s\n", run.ErrorKind, run.FailedStep, run.Error)
	}

	fmt.Fprintln(w)
	rows := make([][]string, 0, len(run.Steps))
	for _, s := range run.Steps {
		rows = append(rows, []string{
			fmt.Sprint(s.Index + 1),
			s.Name,
			string(s.Status),
			s.Duration.Round(time.Millisecond).String(),
		})
	}
	printTable(w, []string{"#", "STEP", "STATUS", "DURATION"}, rows)

	if len(run.Assets) > 0 {
		fmt.Fprintln(w)
		rows = rows[:0]
		for _, a := range run.Assets {
			rows = append(rows, []string{a.Description, a.Location})
		}
		printTable(w, []string{"EVIDENCE", "LOCATION"}, rows)
	}

	for _, e := range run.CaptureErrors {
		fmt.Fprintf(w, "Evidence capture failed: %s\n", e)
	}
}
