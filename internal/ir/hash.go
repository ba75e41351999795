package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
)

// Domain prefixes for content-addressed identity. The version suffix leaves
// room for a future change of the canonical form.
const (
	DomainRuleSet = "smartscript/ruleset/v1"
	DomainTrace   = "smartscript/trace/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FixedPoint converts a coordinate to thousandths so it can take part in
// canonical JSON, which forbids floats.
func FixedPoint(v float64) int64 {
	return int64(math.Round(v * 1000))
}

// CanonicalValue returns the canonical-JSON form of a position.
func (p Position) CanonicalValue() map[string]any {
	return map[string]any{
		"x": FixedPoint(p.X),
		"y": FixedPoint(p.Y),
		"z": FixedPoint(p.Z),
		"o": FixedPoint(p.O),
	}
}

func uintParams(params []uint32) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = p
	}
	return out
}

// CanonicalValue returns the canonical-JSON form of a rule.
// The comment is excluded: it does not change behavior.
func (r Rule) CanonicalValue() map[string]any {
	return map[string]any{
		"entry_or_guid": r.EntryOrGuid,
		"source_type":   r.SourceType,
		"id":            r.ID,
		"link":          r.Link,
		"event": map[string]any{
			"type":       r.Event.Type,
			"params":     uintParams(r.Event.Params[:]),
			"chance":     r.Event.Chance,
			"phase_mask": r.Event.PhaseMask,
			"flags":      uint32(r.Event.Flags),
		},
		"action": map[string]any{
			"type":   r.Action.Type,
			"params": uintParams(r.Action.Params[:]),
		},
		"target": map[string]any{
			"type":   r.Target.Type,
			"params": uintParams(r.Target.Params[:]),
			"pos":    r.Target.Pos.CanonicalValue(),
		},
	}
}

// RuleSetHash computes a stable content hash for an ordered rule set.
// Two sets hash equal exactly when they would behave identically.
func RuleSetHash(rules []Rule) (string, error) {
	arr := make([]any, len(rules))
	for i, r := range rules {
		arr[i] = r.CanonicalValue()
	}
	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("RuleSetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRuleSet, canonical), nil
}

// TraceHash computes the content hash of a canonical trace document.
func TraceHash(trace []byte) string {
	return hashWithDomain(DomainTrace, trace)
}
