package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jward/pascalfix"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "0.1.0-dev"

var versionColor = color.New(color.FgYellow, color.Bold)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:           "pascalfix",
	Short:         "Rename C# properties to PascalCase, keeping their JSON names",
	Long:          "Pascalfix renames non-PascalCase auto-properties of C# classes, structs and records and adds a serialization attribute carrying the original name.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := readConfig(); err != nil {
			return err
		}
		return validateFormat(viper.GetString(formatKey))
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().String("format", defaultFormat, "output format: source|diff|text|json|yaml")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log at debug level")
	bindFlagToConfig(rootCmd.PersistentFlags().Lookup("format"), formatKey)

	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(versionCmd)
}

var (
	flagOffset    int
	flagLine      int
	flagCol       int
	flagContainer string
	flagAll       bool
	flagWrite     bool
)

var fixCmd = &cobra.Command{
	Use:   "fix FILE|DIR...",
	Short: "Apply the PascalCase fix to C# files",
	Long: `Applies the fix to every class, struct and record in the given files, or
to a single type selected with --offset, --line/--col or --container.
Directories are searched for .cs files, honouring .gitignore.

Without --write the files are left untouched and the result is printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFix,
}

func init() {
	fixCmd.Flags().IntVar(&flagOffset, "offset", 0, "byte offset of the diagnostic")
	fixCmd.Flags().IntVar(&flagLine, "line", 0, "1-based line of the diagnostic")
	fixCmd.Flags().IntVar(&flagCol, "col", 1, "1-based byte column of the diagnostic")
	fixCmd.Flags().StringVar(&flagContainer, "container", "", "namespace-qualified type to fix, e.g. App.Models.User")
	fixCmd.Flags().BoolVar(&flagAll, "all", false, "fix every type in every file (default)")
	fixCmd.Flags().BoolVarP(&flagWrite, "write", "w", false, "write changed files in place")
	fixCmd.Flags().String("serializer", defaultSerializer, "attribute to add: newtonsoft|system-text-json")
	fixCmd.Flags().Int("parallel", defaultParallel, "files fixed concurrently (0 = number of CPUs)")

	bindFlagToConfig(fixCmd.Flags().Lookup("serializer"), serializerKey)
	bindFlagToConfig(fixCmd.Flags().Lookup("parallel"), parallelKey)
}

func runFix(cmd *cobra.Command, args []string) error {
	target, single, err := resolveTarget(cmd)
	if err != nil {
		return outputError("fix", err)
	}

	paths, err := resolvePaths(args)
	if err != nil {
		return outputError("fix", err)
	}
	if single && len(paths) != 1 {
		return outputError("fix", fmt.Errorf("--offset, --line and --container take exactly one file, got %d", len(paths)))
	}

	marker, err := pascalfix.MarkerByName(viper.GetString(serializerKey))
	if err != nil {
		return outputError("fix", err)
	}

	logger, logCloser := newLogger(os.Stderr, flagVerbose)
	defer logCloser.Close()

	f := pascalfix.New(
		pascalfix.WithMarker(marker),
		pascalfix.WithLogger(logger),
		pascalfix.WithParallelism(viper.GetInt(parallelKey)),
	)

	results, err := f.FixFiles(context.Background(), paths, target)
	if err != nil {
		return outputError("fix", err)
	}

	written := make(map[string]bool)
	if flagWrite {
		var changed []*pascalfix.Result
		for _, res := range results {
			if res.Changed() {
				changed = append(changed, res)
			}
		}
		if err := writeInPlace(changed); err != nil {
			return outputError("fix", err)
		}
		for _, res := range changed {
			written[res.Path] = true
		}
	}

	return writeResults(os.Stdout, viper.GetString(formatKey), results, written)
}

// resolveTarget turns the targeting flags into a pascalfix.Target. At most
// one mode may be given. single reports a mode that needs exactly one file.
func resolveTarget(cmd *cobra.Command) (target pascalfix.Target, single bool, err error) {
	modes := 0
	if cmd.Flags().Changed("offset") {
		if flagOffset < 0 {
			return target, false, fmt.Errorf("invalid --offset %d", flagOffset)
		}
		target.Diagnostics = []pascalfix.Diagnostic{
			pascalfix.NewDiagnostic(pascalfix.Span{Start: flagOffset, End: flagOffset}),
		}
		modes++
	}
	if cmd.Flags().Changed("line") {
		if flagLine < 1 || flagCol < 1 {
			return target, false, fmt.Errorf("invalid position %d:%d", flagLine, flagCol)
		}
		target.Line, target.Col = flagLine, flagCol
		modes++
	} else if cmd.Flags().Changed("col") {
		return target, false, errors.New("--col requires --line")
	}
	if flagContainer != "" {
		target.Container = flagContainer
		modes++
	}
	if flagAll {
		modes++
	}

	if modes > 1 {
		return target, false, errors.New("use only one of --offset, --line/--col, --container and --all")
	}
	return target, modes == 1 && !flagAll, nil
}

// resolvePaths expands directory arguments into the C# files they contain.
func resolvePaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("file not found: %s", arg)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := pascalfix.DiscoverFiles(arg)
		if err != nil {
			return nil, fmt.Errorf("searching %s: %w", arg, err)
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return nil, errors.New("no C# files found")
	}
	return paths, nil
}

// writeInPlace replaces each result's file with its fixed source, keeping
// permissions. Every file is first written to a temporary sibling; the
// originals are renamed over only after all temporaries exist, so a failed
// write leaves every file untouched.
func writeInPlace(results []*pascalfix.Result) error {
	temps := make([]string, 0, len(results))
	removeTemps := func(from int) {
		for _, tmp := range temps[from:] {
			_ = os.Remove(tmp)
		}
	}

	for _, res := range results {
		tmp, err := writeTemp(res.Path, res.Source)
		if err != nil {
			removeTemps(0)
			return err
		}
		temps = append(temps, tmp)
	}

	for i, res := range results {
		if err := os.Rename(temps[i], res.Path); err != nil {
			removeTemps(i)
			return fmt.Errorf("replacing %s: %w", res.Path, err)
		}
	}
	return nil
}

// writeTemp writes src next to path with path's permissions and returns the
// temporary file name.
func writeTemp(path string, src []byte) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	tmp := f.Name()

	_, err = f.Write(src)
	if err == nil {
		err = f.Chmod(info.Mode().Perm())
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return tmp, nil
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In json and yaml mode the error is written to
// stdout as a CLIResult envelope; otherwise it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	result := CLIResult{Command: command, Results: []CLIFile{}, Error: err.Error()}
	switch viper.GetString(formatKey) {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	case "yaml":
		_ = yaml.NewEncoder(os.Stdout).Encode(result)
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pascalfix %s\n", versionColor.Sprint(version))
		fmt.Fprintf(cmd.OutOrStdout(), "fixes %s: %s\n", pascalfix.DiagnosticID, pascalfix.New().Title())
	},
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding .git.
			return startDir
		}
		dir = parent
	}
}
