package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/evanofslack/nmcli-sync/internal/reconcile"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func printResults(w io.Writer, results reconcile.Results, format string) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		return enc.Close()
	case outputText, "":
		printSummary(w, results)
		return nil
	}
	return fmt.Errorf("unsupported output format: %s", format)
}

func printSummary(w io.Writer, results reconcile.Results) {
	fmt.Fprintf(w, "created: %d, modified: %d, deleted: %d, unchanged: %d, failed: %d\n",
		len(results.Created), len(results.Modified), len(results.Deleted),
		len(results.Unchanged), len(results.Failures))
	for _, f := range results.Failures {
		fmt.Fprintf(w, "  %s %s: %s\n", f.Op, f.Name, f.Error)
	}
}

// renderDiffs writes one row per differing setting.
func renderDiffs(w io.Writer, results reconcile.Results) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Connection", "Action", "Setting", "Current", "Desired"})

	for _, name := range results.Deleted {
		t.AppendRow(table.Row{name, "delete", "", "", ""})
	}
	names := make([]string, 0, len(results.Diffs))
	for name := range results.Diffs {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		action := "modify"
		if slices.Contains(results.Created, name) {
			action = "create"
		}
		diff := results.Diffs[name]
		for _, k := range diff.Keys() {
			t.AppendRow(table.Row{name, action, string(k), diff.Before.Get(k).String(), diff.After.Get(k).String()})
		}
		for _, k := range diff.Skipped {
			t.AppendRow(table.Row{name, action, string(k), "<hidden>", "<not compared>"})
		}
	}
	t.Render()
}
