package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/smartscript/internal/harness"
	"github.com/roach88/smartscript/internal/ir"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	UpdateGolden bool   // regenerate golden files
	Filter       string // glob over scenario file names

	// RunIDs overrides the run id source; nil means UUIDv7.
	RunIDs harness.RunIDGenerator
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name    string   `json:"name"`
	File    string   `json:"file"`
	Pass    bool     `json:"pass"`
	RunID   string   `json:"run_id,omitempty"`
	Effects int      `json:"effects"`
	Golden  string   `json:"golden,omitempty"` // "match", "mismatch", "updated" or "none"
	Hash    string   `json:"trace_hash,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// SimulationResult holds the overall result.
type SimulationResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <scenario-file-or-dir>",
		Short: "Run YAML scenarios against the reference world",
		Long: `Run simulation scenarios against the reference world.

Each scenario compiles its rules directory, attaches an engine to every
scripted object, drives its steps and checks its assertions. When
golden/<name>.golden exists next to a scenario file, the effect trace
must match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  smartscript simulate ./scenarios
  smartscript simulate ./scenarios/boar_aggro.yaml
  smartscript simulate ./scenarios --filter "boar_*"
  smartscript simulate ./scenarios --update-golden`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.UpdateGolden, "update-golden", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runSimulate(opts *SimulateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	files, err := findScenarioFiles(path, opts.Filter)
	if errors.Is(err, fs.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeBadFlags, fmt.Sprintf("scenario path not found: %s", path), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadFlags, "failed to find scenarios", err)
	}

	result := SimulationResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	if len(files) == 0 {
		if formatter.JSON() {
			return outputSimulationJSON(formatter, result)
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	for _, file := range files {
		sr := runScenario(opts, file)
		printScenario(formatter, sr)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.JSON() {
		return outputSimulationJSON(formatter, result)
	}
	return outputSimulationText(formatter, result)
}

// findScenarioFiles returns path itself when it is a file, or every YAML
// file below it whose base name matches filter.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(p), ext)
			if ok, _ := filepath.Match(filter, name); !ok {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	return files, err
}

// runScenario loads, runs and golden-checks one scenario file.
func runScenario(opts *SimulateOptions, file string) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file}
	fail := func(format string, args ...any) ScenarioResult {
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf(format, args...))
		return sr
	}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return fail("failed to load scenario: %v", err)
	}
	sr.Name = scenario.Name

	runOpts := []harness.Option{}
	if opts.RunIDs != nil {
		runOpts = append(runOpts, harness.WithRunIDGenerator(opts.RunIDs))
	}
	if opts.Verbose {
		runOpts = append(runOpts, harness.WithLogger(opts.Logger()))
	}
	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return fail("execution failed: %v", err)
	}
	sr.RunID = result.RunID
	sr.Effects = len(result.Trace)
	sr.Pass = result.Pass
	sr.Errors = append(sr.Errors, result.Errors...)

	trace, err := goldenBytes(scenario, result)
	if err != nil {
		return fail("failed to marshal trace: %v", err)
	}
	sr.Hash = ir.TraceHash(trace)
	goldenPath := goldenFilePath(file)

	if opts.UpdateGolden {
		if err := writeGolden(goldenPath, trace); err != nil {
			return fail("failed to update golden file: %v", err)
		}
		sr.Golden = "updated"
		return sr
	}

	want, err := os.ReadFile(goldenPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		sr.Golden = "none"
	case err != nil:
		return fail("failed to read golden file: %v", err)
	case !bytes.Equal(want, trace):
		sr.Golden = "mismatch"
		return fail("trace does not match golden file (run with --update-golden to regenerate)")
	default:
		sr.Golden = "match"
	}
	return sr
}

// goldenBytes renders the trace with the scenario's pinned run id, so
// runs without one stay comparable.
func goldenBytes(scenario *harness.Scenario, result *harness.Result) ([]byte, error) {
	pinned := *result
	pinned.RunID = scenario.RunID
	return harness.MarshalTrace(scenario.Name, &pinned)
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func printScenario(formatter *OutputFormatter, sr ScenarioResult) {
	if formatter.JSON() {
		return
	}
	w := formatter.Writer
	if !sr.Pass {
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return
	}
	switch sr.Golden {
	case "updated":
		fmt.Fprintf(w, "✓ %s (golden updated)\n", sr.Name)
	case "match":
		fmt.Fprintf(w, "✓ %s (%d effect(s), golden match)\n", sr.Name, sr.Effects)
	default:
		fmt.Fprintf(w, "✓ %s (%d effect(s))\n", sr.Name, sr.Effects)
	}
	formatter.VerboseLog("  run %s", sr.RunID)
}

func outputSimulationJSON(formatter *OutputFormatter, result SimulationResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeSimFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}
	if err := formatter.Encode(response); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func outputSimulationText(formatter *OutputFormatter, result SimulationResult) error {
	w := formatter.Writer
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Simulation Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
