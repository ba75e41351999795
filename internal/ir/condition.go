package ir

import "fmt"

// Condition is one boolean expression attached to a rule. Conditions of a
// rule with the same Group must all hold; a rule passes when any group does.
type Condition struct {
	Source      SourceType `json:"source_type"`
	EntryOrGuid int64      `json:"entry_or_guid"`
	EventID     uint32     `json:"event_id"`
	Group       uint32     `json:"group"`
	Expr        string     `json:"expr"`
	Comment     string     `json:"comment,omitempty"`
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %d #%d group %d: %s", c.Source, c.EntryOrGuid, c.EventID, c.Group, c.Expr)
}
