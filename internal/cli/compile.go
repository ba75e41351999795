package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/smartscript/internal/compiler"
	"github.com/roach88/smartscript/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledSet is one compiled rule set with its content hash.
type CompiledSet struct {
	ir.RuleSet
	Hash string `json:"hash"`
}

// CompilationResult holds everything compiled from a rules directory.
type CompilationResult struct {
	Format     string         `json:"format"`
	Scripts    []CompiledSet  `json:"scripts"`
	TimedLists []CompiledSet  `json:"timed_lists"`
	Conditions []ir.Condition `json:"conditions"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <rules-dir>",
		Short: "Compile CUE rule sets to JSON",
		Long: `Compile the CUE scripts, timed action lists and conditions of a
rules directory.

Every error in the directory is reported, not just the first. With --out
the compiled rule sets are written as JSON, each with its content hash.

Examples:
  smartscript compile ./rules
  smartscript compile ./rules --out rules.json
  smartscript compile ./rules --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, rulesDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, loadErrors := compiler.LoadDir(rulesDir, compiler.LoadModeCollectAll)
	if loaded == nil && len(loadErrors) > 0 {
		code, message := parseCompileError(loadErrors[0])
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, rulesDir)
	for _, rs := range loaded.RuleSets() {
		formatter.VerboseLog("Compiled %s %d (%s): %d rule(s)", rs.Source, rs.EntryOrGuid, rs.Name, len(rs.Rules))
	}

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result, err := buildCompilation(loaded)
	if err != nil {
		return formatter.Fail(ExitCommandError, compiler.ErrCodeGeneric, "hashing rule sets", err)
	}

	if opts.Output != "" {
		if err := writeCompilation(result, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		opts.Logger().Info("wrote compiled rules", "path", opts.Output,
			"scripts", len(result.Scripts), "timed_lists", len(result.TimedLists))
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func buildCompilation(loaded *compiler.Result) (*CompilationResult, error) {
	result := &CompilationResult{
		Format:     ir.RuleFormatVersion,
		Scripts:    make([]CompiledSet, 0, len(loaded.Scripts)),
		TimedLists: make([]CompiledSet, 0, len(loaded.TimedLists)),
		Conditions: loaded.Conditions,
	}
	if result.Conditions == nil {
		result.Conditions = []ir.Condition{}
	}
	for _, rs := range loaded.Scripts {
		set, err := hashed(rs)
		if err != nil {
			return nil, err
		}
		result.Scripts = append(result.Scripts, set)
	}
	for _, rs := range loaded.TimedLists {
		set, err := hashed(rs)
		if err != nil {
			return nil, err
		}
		result.TimedLists = append(result.TimedLists, set)
	}
	return result, nil
}

func hashed(rs ir.RuleSet) (CompiledSet, error) {
	hash, err := ir.RuleSetHash(rs.Rules)
	if err != nil {
		return CompiledSet{}, fmt.Errorf("%s %d: %w", rs.Source, rs.EntryOrGuid, err)
	}
	return CompiledSet{RuleSet: rs, Hash: hash}, nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d script(s), %d timed list(s), %d condition(s)\n\n",
		len(result.Scripts), len(result.TimedLists), len(result.Conditions))

	printSets := func(title string, sets []CompiledSet) {
		if len(sets) == 0 {
			return
		}
		fmt.Fprintln(w, title)
		for _, s := range sets {
			fmt.Fprintf(w, "  %s %d (%s): %d rule(s) %s\n",
				s.Source, s.EntryOrGuid, s.Name, len(s.Rules), shortHash(s.Hash))
		}
		fmt.Fprintln(w)
	}
	printSets("Scripts:", result.Scripts)
	printSets("Timed lists:", result.TimedLists)

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote compiled rules to %s\n", outputFile)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// outputCompileErrors outputs every compilation error.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	failure := NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}
	return failure
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return compiler.ErrCodeCompile, compileErr.Field + ": " + compileErr.Message
	}
	return compiler.ErrCodeGeneric, err.Error()
}

// writeCompilation writes the result as indented JSON. Hashes are taken
// over canonical JSON, so the file layout does not affect them.
func writeCompilation(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
