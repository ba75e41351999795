package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/smartscript/internal/compiler"
	"github.com/roach88/smartscript/internal/ir"
	"github.com/roach88/smartscript/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
}

// ImportedSet reports what happened to one rule set.
type ImportedSet struct {
	Source      string `json:"source_type"`
	EntryOrGuid int64  `json:"entry_or_guid"`
	Name        string `json:"name"`
	Rules       int    `json:"rules"`
	store.ImportResult
}

// ImportSummary holds the result of an import.
type ImportSummary struct {
	Sets       []ImportedSet `json:"sets"`
	Changed    int           `json:"changed"`
	Conditions int           `json:"conditions"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <rules-dir>",
		Short: "Compile rule sets and store them in SQLite",
		Long: `Compile a rules directory and write every rule set into a SQLite
database, creating it if needed.

Each set replaces the stored set with the same source type and
entry-or-guid. A set's revision advances only when its content hash
changes. The stored conditions are replaced by the directory's.

Examples:
  smartscript import --db ./rules.db ./rules`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(opts *ImportOptions, rulesDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.Logger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loaded, loadErrors := compiler.LoadDir(rulesDir, compiler.LoadModeCollectAll)
	if loaded == nil && len(loadErrors) > 0 {
		code, message := parseCompileError(loadErrors[0])
		return formatter.Fail(ExitCommandError, code, message, nil)
	}
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}
	if errs := compiler.ValidateConditions(loaded.Conditions); len(errs) > 0 {
		return formatter.Fail(ExitCommandError, errs[0].Code, errs[0].Error(), nil)
	}

	logger.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	summary := ImportSummary{Sets: []ImportedSet{}, Conditions: len(loaded.Conditions)}
	for _, rs := range loaded.RuleSets() {
		res, err := st.ImportRuleSet(ctx, rs)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore,
				fmt.Sprintf("importing %s %d", rs.Source, rs.EntryOrGuid), err)
		}
		logger.Info("rule set imported",
			"source_type", rs.Source.String(),
			"entry", rs.EntryOrGuid,
			"revision", res.Revision,
			"changed", res.Changed)
		if res.Changed {
			summary.Changed++
		}
		summary.Sets = append(summary.Sets, importedSet(rs, res))
	}

	if err := st.ReplaceConditions(ctx, loaded.Conditions); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "replacing conditions", err)
	}

	return outputImport(formatter, summary, opts.Database)
}

func importedSet(rs ir.RuleSet, res store.ImportResult) ImportedSet {
	return ImportedSet{
		Source:       rs.Source.String(),
		EntryOrGuid:  rs.EntryOrGuid,
		Name:         rs.Name,
		Rules:        len(rs.Rules),
		ImportResult: res,
	}
}

func outputImport(formatter *OutputFormatter, summary ImportSummary, db string) error {
	if formatter.JSON() {
		return formatter.Success(summary)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Imported %d rule set(s) into %s (%d changed), %d condition(s)\n\n",
		len(summary.Sets), db, summary.Changed, summary.Conditions)
	for _, s := range summary.Sets {
		state := "unchanged"
		if s.Changed {
			state = "updated"
		}
		fmt.Fprintf(w, "  %s %d (%s): %d rule(s) rev %d %s\n",
			s.Source, s.EntryOrGuid, s.Name, s.Rules, s.Revision, state)
	}
	return nil
}
