package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/smartscript/internal/ir"
)

// RuntimeError represents a problem detected while a rule was processed.
//
// Runtime errors never escape a tick. They are logged, counted in Stats and
// the offending rule or action is skipped; other rules keep running.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RuleID identifies the rule being processed, if any.
	RuleID uint32

	// Source and EntryOrGuid identify the rule set.
	Source      ir.SourceType
	EntryOrGuid int64

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownAction indicates an opcode outside the handler table.
	ErrCodeUnknownAction RuntimeErrorCode = "UNKNOWN_ACTION"

	// ErrCodeUnknownEvent indicates an event kind outside the check table.
	ErrCodeUnknownEvent RuntimeErrorCode = "UNKNOWN_EVENT"

	// ErrCodeUnknownTarget indicates a selector the resolver does not know.
	ErrCodeUnknownTarget RuntimeErrorCode = "UNKNOWN_TARGET"

	// ErrCodeMissingLink indicates a link to a rule id that does not exist.
	ErrCodeMissingLink RuntimeErrorCode = "MISSING_LINK"

	// ErrCodeDepthExceeded indicates nested dispatch beyond the ceiling.
	ErrCodeDepthExceeded RuntimeErrorCode = "DEPTH_EXCEEDED"

	// ErrCodeMissingCollaborator indicates an optional collaborator is nil.
	ErrCodeMissingCollaborator RuntimeErrorCode = "MISSING_COLLABORATOR"

	// ErrCodeNoBaseObject indicates a selector or action needed an owner
	// object that could not be resolved.
	ErrCodeNoBaseObject RuntimeErrorCode = "NO_BASE_OBJECT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.EntryOrGuid != 0 || e.RuleID != 0 {
		return fmt.Sprintf("%s: %s (%s %d, rule=%d)", e.Code, e.Message, e.Source, e.EntryOrGuid, e.RuleID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDepthError returns true if the error reports a recursion-limit drop.
// Matches both RuntimeError with ErrCodeDepthExceeded and DepthExceededError.
func IsDepthError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeDepthExceeded
	}
	var de *DepthExceededError
	return errors.As(err, &de)
}

// IsConfigError returns true for configuration errors: unknown opcodes,
// kinds or selectors, missing collaborators and unresolvable owners.
func IsConfigError(err error) bool {
	var re *RuntimeError
	if !errors.As(err, &re) {
		return false
	}
	switch re.Code {
	case ErrCodeUnknownAction, ErrCodeUnknownEvent, ErrCodeUnknownTarget,
		ErrCodeMissingCollaborator, ErrCodeNoBaseObject:
		return true
	}
	return false
}

// IsLinkError returns true if the error is a structural link error.
func IsLinkError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeMissingLink
	}
	return false
}

// newRuleError creates a RuntimeError scoped to a rule.
func newRuleError(code RuntimeErrorCode, r ir.Rule, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:        code,
		Message:     fmt.Sprintf(format, args...),
		RuleID:      r.ID,
		Source:      r.SourceType,
		EntryOrGuid: r.EntryOrGuid,
	}
}
