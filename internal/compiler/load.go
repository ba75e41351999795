package compiler

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/smartscript/internal/catalog"
	"github.com/roach88/smartscript/internal/ir"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Load error codes, shared with the CLI.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeCompile     = "E007" // Entry failed to compile
)

// Result holds everything compiled from one rules directory. Rule sets are
// ordered by source type then entry-or-guid.
type Result struct {
	Scripts    []ir.RuleSet
	TimedLists []ir.RuleSet
	Conditions []ir.Condition
	FileCount  int
}

// RuleSets returns scripts followed by timed lists.
func (r *Result) RuleSets() []ir.RuleSet {
	return slices.Concat(r.Scripts, r.TimedLists)
}

// Catalog builds a rule catalog from the result.
func (r *Result) Catalog(opts ...catalog.Option) *catalog.Catalog {
	c := catalog.New(opts...)
	for _, rs := range r.RuleSets() {
		c.Replace(catalog.Key{Source: rs.Source, EntryOrGuid: rs.EntryOrGuid}, rs.Rules)
	}
	return c
}

// LoadError represents an error that occurred during loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDir loads and compiles every CUE file of a rules directory.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadDir(dir string, mode LoadMode) (*Result, []error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rules directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing rules directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	if inst := instances[0]; inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}
	value := ctx.BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	res, errs := compileValue(value, mode)
	if res != nil {
		res.FileCount = len(files)
	}
	return res, errs
}

// LoadString compiles CUE source held in memory. Used by tests and tools
// that generate rules.
func LoadString(src string, mode LoadMode) (*Result, []error) {
	value := cuecontext.New().CompileString(src)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}
	return compileValue(value, mode)
}

func compileValue(value cue.Value, mode LoadMode) (*Result, []error) {
	var errs []error
	res := &Result{}

	// each walks one top-level struct; false stops the walk.
	each := func(section string, fn func(cue.Value) error) bool {
		v := value.LookupPath(cue.ParsePath(section))
		if !v.Exists() {
			return true
		}
		iter, err := v.Fields()
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating %s: %v", section, err)})
			return mode != LoadModeFailFast
		}
		for iter.Next() {
			if err := fn(iter.Value()); err != nil {
				errs = append(errs, convertCompileError(err, section+"."+iter.Label()))
				if mode == LoadModeFailFast {
					return false
				}
			}
		}
		return true
	}

	ok := each("script", func(v cue.Value) error {
		rs, err := CompileScript(v)
		if err == nil {
			res.Scripts = append(res.Scripts, *rs)
		}
		return err
	})
	ok = ok && each("timed_list", func(v cue.Value) error {
		rs, err := CompileTimedList(v)
		if err == nil {
			res.TimedLists = append(res.TimedLists, *rs)
		}
		return err
	})
	ok = ok && each("condition", func(v cue.Value) error {
		c, err := CompileCondition(v)
		if err == nil {
			res.Conditions = append(res.Conditions, *c)
		}
		return err
	})
	if !ok {
		return res, errs
	}

	sortSets(res.Scripts)
	sortSets(res.TimedLists)
	if len(res.Scripts) == 0 && len(res.TimedLists) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no scripts or timed lists found"})
	}
	return res, errs
}

func sortSets(sets []ir.RuleSet) {
	slices.SortStableFunc(sets, func(a, b ir.RuleSet) int {
		if n := cmp.Compare(a.Source, b.Source); n != 0 {
			return n
		}
		return cmp.Compare(a.EntryOrGuid, b.EntryOrGuid)
	})
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var ce *CompileError
	if errors.As(err, &ce) {
		return &LoadError{
			Code:    ErrCodeCompile,
			Message: fmt.Sprintf("%s: %s: %s", context, ce.Field, ce.Message),
			Pos:     ce.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s: %v", context, err)}
}
