package ir

// RuleSet is the compiled form of one script or timed action list: every
// rule of one (source type, entry-or-guid) key.
type RuleSet struct {
	Name        string     `json:"name"`
	Source      SourceType `json:"source_type"`
	EntryOrGuid int64      `json:"entry_or_guid"`
	Rules       []Rule     `json:"rules"`
}
