package ir

// Version constants for the rule format and engine.
const (
	// RuleFormatVersion is bumped when the canonical rule form changes.
	RuleFormatVersion = "1"

	// EngineVersion is the SmartScript engine version.
	EngineVersion = "0.1.0"
)
