package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/smartscript/internal/compiler"
)

const invalidRules = `package rules

script: bad: {
	source: "creature"
	entry:  7
	rules: [{
		id:     0
		event:  {type: "aggro", chance: 150}
		action: {type: "talk"}
	}, {
		id:     0
		link:   9
		event:  {type: "evade"}
		action: {type: "talk"}
	}]
}
`

const linkedRules = `package rules

script: linked: {
	source: "creature"
	entry:  8
	rules: [{
		id:     0
		link:   5
		event:  {type: "aggro"}
		action: {type: "talk"}
	}]
}
`

func TestValidateValidRules(t *testing.T) {
	out, err := runCommand(t, "text", NewValidateCommand, testRulesDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All 4 rule set(s) valid")
}

func TestValidateValidRulesJSON(t *testing.T) {
	out, err := runCommand(t, "json", NewValidateCommand, testRulesDir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 4, resp.Data.Sets)
	assert.Empty(t, resp.Data.Errors)
}

func TestValidateInvalidRules(t *testing.T) {
	dir := writeRules(t, t.TempDir(), "bad.cue", invalidRules)

	out, err := runCommand(t, "text", NewValidateCommand, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, compiler.ErrChanceRange)
	assert.Contains(t, out, compiler.ErrDuplicateRuleID)
}

func TestValidateInvalidRulesJSON(t *testing.T) {
	dir := writeRules(t, t.TempDir(), "bad.cue", invalidRules)

	out, err := runCommand(t, "json", NewValidateCommand, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotNil(t, resp.Error)

	var codes []string
	for _, e := range resp.Data.Errors {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, compiler.ErrChanceRange)
	assert.Contains(t, codes, compiler.ErrDuplicateRuleID)
}

func TestValidateLinkWarningsDoNotFail(t *testing.T) {
	dir := writeRules(t, t.TempDir(), "linked.cue", linkedRules)

	out, err := runCommand(t, "text", NewValidateCommand, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All 1 rule set(s) valid")
	assert.Contains(t, out, "! "+compiler.ErrMissingLink)
}

func TestValidateCompileErrorsBecomeValidationErrors(t *testing.T) {
	dir := writeRules(t, t.TempDir(), "bad.cue", `package rules

script: a: {
	source: "creature"
	entry:  1
	rules: [{id: 0, event: {type: "no_such_event"}, action: {type: "talk"}}]
}
`)

	result, err := ValidateRulesDir(dir)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "load", result.Errors[0].Field)
	assert.Equal(t, compiler.ErrCodeCompile, result.Errors[0].Code)
	assert.Positive(t, result.Errors[0].Line)
}

func TestValidateBadCondition(t *testing.T) {
	dir := writeRules(t, t.TempDir(), "cond.cue", linkedRules+`
condition: broken: {
	source: "creature"
	entry:  8
	event:  0
	expr:   "Actor.("
}
`)

	result, err := ValidateRulesDir(dir)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, compiler.ErrInvalidCondition, result.Errors[0].Code)
}

func TestValidateMissingDir(t *testing.T) {
	out, err := runCommand(t, "text", NewValidateCommand, filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, compiler.ErrCodeNotFound)
}

// syncBuffer is a bytes.Buffer safe for a command writing on another
// goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestValidateWatch(t *testing.T) {
	dir := writeRules(t, t.TempDir(), "linked.cue", linkedRules)

	out := &syncBuffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(out)
	cmd.SetErr(&syncBuffer{})
	cmd.SetArgs([]string{dir, "--watch"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "✓ All 1 rule set(s) valid")
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "linked.cue"), []byte(invalidRules), 0o644))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "✗ Validation failed")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
