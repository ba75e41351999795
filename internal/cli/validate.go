package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/smartscript/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Watch bool
}

// ValidationResult holds validation results. Link warnings never make a
// directory invalid.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Sets     int                        `json:"sets"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.LinkWarning     `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <rules-dir>",
		Short: "Validate rule sets without writing output",
		Long: `Validate the CUE rule sets of a directory.

Checks enum names, duplicate rule ids, chance and phase ranges, timer
ranges and condition expressions. Links to missing rules, links to rules
that are not link events and link cycles are reported as warnings.

With --watch the directory is revalidated whenever a .cue file changes,
until interrupted.

Examples:
  smartscript validate ./rules
  smartscript validate ./rules --watch`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Watch {
				return runValidateWatch(opts, args[0], cmd)
			}
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "revalidate on file changes")

	return cmd
}

func runValidate(opts *ValidateOptions, rulesDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	result, err := ValidateRulesDir(rulesDir)
	if err != nil {
		code, message := parseCompileError(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}
	return outputValidation(formatter, result)
}

// runValidateWatch validates once, then again on every change. Failures
// are reported but do not stop the loop.
func runValidateWatch(opts *ValidateOptions, rulesDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.Logger()

	if info, err := os.Stat(rulesDir); err != nil || !info.IsDir() {
		return formatter.Fail(ExitCommandError, compiler.ErrCodeNotFound,
			fmt.Sprintf("rules directory not found: %s", rulesDir), nil)
	}

	watcher, err := newRuleWatcher(rulesDir)
	if err != nil {
		return formatter.Fail(ExitCommandError, compiler.ErrCodeScanError, "starting watcher", err)
	}
	defer watcher.Close()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	validateOnce := func() {
		result, err := ValidateRulesDir(rulesDir)
		if err != nil {
			code, message := parseCompileError(err)
			_ = formatter.Error(code, message, nil)
			return
		}
		_ = outputValidation(formatter, result)
	}

	validateOnce()
	logger.Info("watching rules", "dir", rulesDir)

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil
		case path, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			logger.Debug("rules changed", "path", path)
			validateOnce()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// ValidateRulesDir loads a rules directory and validates everything in
// it. The error is non-nil only when the directory itself cannot be
// loaded; compile errors are reported as validation errors.
func ValidateRulesDir(rulesDir string) (*ValidationResult, error) {
	loaded, loadErrors := compiler.LoadDir(rulesDir, compiler.LoadModeCollectAll)
	if loaded == nil {
		if len(loadErrors) > 0 {
			return nil, loadErrors[0]
		}
		return nil, errors.New("no rules loaded")
	}

	result := &ValidationResult{}
	for _, err := range loadErrors {
		result.Errors = append(result.Errors, loadValidationError(err))
	}

	sets := loaded.RuleSets()
	result.Sets = len(sets)
	for i := range sets {
		result.Errors = append(result.Errors, compiler.Validate(&sets[i])...)
		result.Warnings = append(result.Warnings, compiler.AnalyzeLinks(&sets[i])...)
	}
	result.Errors = append(result.Errors, compiler.ValidateConditions(loaded.Conditions)...)

	result.Valid = len(result.Errors) == 0
	return result, nil
}

func loadValidationError(err error) compiler.ValidationError {
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		ve := compiler.ValidationError{Field: "load", Message: loadErr.Message, Code: loadErr.Code}
		if loadErr.Pos.IsValid() {
			ve.Line = loadErr.Pos.Line()
		}
		return ve
	}
	return compiler.ValidationError{Field: "load", Message: err.Error(), Code: compiler.ErrCodeGeneric}
}

// outputValidation prints the result. Invalid results return ExitFailure.
func outputValidation(formatter *OutputFormatter, result *ValidationResult) error {
	var failure error
	if !result.Valid {
		failure = NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	if formatter.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: result.Errors[0].Code, Message: result.Errors[0].Message}
		}
		if err := formatter.Encode(resp); err != nil {
			return err
		}
		return failure
	}

	w := formatter.Writer
	if result.Valid {
		fmt.Fprintf(w, "✓ All %d rule set(s) valid\n", result.Sets)
	} else {
		fmt.Fprintln(w, "✗ Validation failed")
		fmt.Fprintln(w)
		for _, e := range result.Errors {
			if e.Line > 0 {
				fmt.Fprintf(w, "line %d\n", e.Line)
			}
			fmt.Fprintf(w, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
		}
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "! %s %s: %s\n", warn.Code, warn.Set, warn.Message)
	}
	return failure
}
