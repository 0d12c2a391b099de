package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/jward/pascalfix"
)

var (
	diffAddColor  = color.New(color.FgGreen)
	diffDelColor  = color.New(color.FgRed)
	diffHunkColor = color.New(color.FgCyan)
	diffFileColor = color.New(color.Bold)
)

// formatSource writes the rewritten source. With more than one file each
// is preceded by a "==> path <==" header.
func formatSource(w io.Writer, results []*pascalfix.Result) {
	for i, res := range results {
		if len(results) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "==> %s <==\n", res.Path)
		}
		w.Write(res.Source)
	}
}

// formatDiff writes a unified diff per changed file. Lines are coloured
// unless color.NoColor is set, which fatih/color does when stdout is not a
// terminal.
func formatDiff(w io.Writer, results []*pascalfix.Result) error {
	for _, res := range results {
		if !res.Changed() {
			continue
		}
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(res.Original)),
			B:        difflib.SplitLines(string(res.Source)),
			FromFile: "a/" + res.Path,
			ToFile:   "b/" + res.Path,
			Context:  3,
		})
		if err != nil {
			return fmt.Errorf("diffing %s: %w", res.Path, err)
		}
		for _, line := range strings.SplitAfter(diff, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprint(w, colorDiffLine(line))
		}
	}
	return nil
}

func colorDiffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return diffFileColor.Sprint(line)
	case strings.HasPrefix(line, "@@"):
		return diffHunkColor.Sprint(line)
	case strings.HasPrefix(line, "+"):
		return diffAddColor.Sprint(line)
	case strings.HasPrefix(line, "-"):
		return diffDelColor.Sprint(line)
	default:
		return line
	}
}

// formatRenamesText writes one table row per rename and a summary footer.
func formatRenamesText(w io.Writer, results []*pascalfix.Result) {
	renames, imports := 0, 0
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Container", "From", "To", "Attribute"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, res := range results {
		for _, r := range res.Renames {
			attr := "existing"
			if r.Annotated {
				attr = "added"
			}
			table.Append([]string{res.Path, r.Container, r.From, r.To, attr})
			renames++
		}
		if res.ImportAdded {
			imports++
		}
	}
	if renames == 0 {
		fmt.Fprintln(w, "No properties to rename.")
		return
	}
	table.Render()
	fmt.Fprintf(w, "\n%d rename(s) in %d file(s), %d import(s) added\n", renames, len(results), imports)
}

// formatJSON writes v as indented JSON.
func formatJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatYAML writes v as YAML.
func formatYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// writeResults renders results in the given format.
func writeResults(w io.Writer, format string, results []*pascalfix.Result, written map[string]bool) error {
	switch format {
	case "source":
		formatSource(w, results)
		return nil
	case "diff":
		return formatDiff(w, results)
	case "text":
		formatRenamesText(w, results)
		return nil
	}

	envelope := CLIResult{Command: "fix", Results: []CLIFile{}}
	for _, res := range results {
		envelope.Results = append(envelope.Results, toCLIFile(res, written[res.Path]))
	}
	if format == "yaml" {
		return formatYAML(w, envelope)
	}
	return formatJSON(w, envelope)
}

// validFormats lists accepted values for --format.
var validFormats = []string{"source", "diff", "text", "json", "yaml"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be one of %s", format, strings.Join(validFormats, ", "))
}
