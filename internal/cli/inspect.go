package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/smartscript/internal/ir"
	"github.com/roach88/smartscript/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database string
	Source   string
	Entry    int64
	Guid     int64
	Event    string
}

// InspectSummary lists the stored rule sets.
type InspectSummary struct {
	Sets       []store.SetSummary `json:"sets"`
	Conditions []ir.Condition     `json:"conditions"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show rule sets stored in a database",
		Long: `Show the rule sets stored in a SQLite database.

Without selection flags every set is listed with its hash and revision.
--entry or --guid selects one set; --guid reads the spawn-specific
override set of that spawn. --event lists every stored rule of one
event kind across sets.

Examples:
  smartscript inspect --db ./rules.db
  smartscript inspect --db ./rules.db --source creature --entry 100
  smartscript inspect --db ./rules.db --guid 4021
  smartscript inspect --db ./rules.db --event aggro`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Source, "source", "creature", "source type of the set")
	cmd.Flags().Int64Var(&opts.Entry, "entry", 0, "template entry of the set")
	cmd.Flags().Int64Var(&opts.Guid, "guid", 0, "spawn id of an override set")
	cmd.Flags().StringVar(&opts.Event, "event", "", "list rules of one event kind")
	cmd.MarkFlagsMutuallyExclusive("entry", "guid", "event")

	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	source, ok := ir.ParseSourceType(opts.Source)
	if !ok {
		return formatter.Fail(ExitCommandError, ErrCodeBadFlags, fmt.Sprintf("unknown source type %q", opts.Source), nil)
	}
	var kind ir.EventType
	if opts.Event != "" {
		if kind, ok = ir.ParseEventType(opts.Event); !ok {
			return formatter.Fail(ExitCommandError, ErrCodeBadFlags, fmt.Sprintf("unknown event type %q", opts.Event), nil)
		}
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	switch {
	case opts.Event != "":
		rules, err := st.RulesByEvent(ctx, kind)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "query rules", err)
		}
		return outputRules(formatter, opts.Event, rules)
	case opts.Entry != 0 || opts.Guid != 0:
		entryOrGuid := opts.Entry
		if opts.Guid != 0 {
			entryOrGuid = -opts.Guid
		}
		rs, found, err := st.RuleSet(ctx, source, entryOrGuid)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "read rule set", err)
		}
		if !found {
			return formatter.Fail(ExitFailure, ErrCodeNotStored,
				fmt.Sprintf("no rule set for %s %d", source, entryOrGuid), nil)
		}
		return outputRuleSet(formatter, rs)
	}

	sums, err := st.Summaries(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "list rule sets", err)
	}
	conds, err := st.Conditions(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "list conditions", err)
	}
	return outputSummaries(formatter, InspectSummary{Sets: sums, Conditions: conds})
}

func outputSummaries(formatter *OutputFormatter, summary InspectSummary) error {
	if formatter.JSON() {
		return formatter.Success(summary)
	}

	w := formatter.Writer
	if len(summary.Sets) == 0 {
		fmt.Fprintln(w, "No rule sets stored.")
		return nil
	}
	fmt.Fprintf(w, "%d rule set(s), %d condition(s)\n\n", len(summary.Sets), len(summary.Conditions))
	for _, s := range summary.Sets {
		fmt.Fprintf(w, "  %s %d (%s): %d rule(s) rev %d %s\n",
			s.Source, s.EntryOrGuid, s.Name, s.Rules, s.Revision, shortHash(s.Hash))
	}
	return nil
}

func outputRuleSet(formatter *OutputFormatter, rs ir.RuleSet) error {
	if formatter.JSON() {
		return formatter.Success(rs)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s %d (%s): %d rule(s)\n\n", rs.Source, rs.EntryOrGuid, rs.Name, len(rs.Rules))
	for _, r := range rs.Rules {
		printRule(formatter, r)
	}
	return nil
}

func outputRules(formatter *OutputFormatter, event string, rules []ir.Rule) error {
	if formatter.JSON() {
		return formatter.Success(rules)
	}

	fmt.Fprintf(formatter.Writer, "%d %s rule(s)\n\n", len(rules), event)
	for _, r := range rules {
		printRule(formatter, r)
	}
	return nil
}

func printRule(formatter *OutputFormatter, r ir.Rule) {
	line := "  " + r.String()
	if r.Link != 0 {
		line += fmt.Sprintf(" link %d", r.Link)
	}
	if r.Comment != "" {
		line += fmt.Sprintf(" %q", r.Comment)
	}
	fmt.Fprintln(formatter.Writer, line)
}
