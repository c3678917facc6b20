package verify

import (
	"encoding/json"
	"fmt"
)

// Status is the outcome of checking one requirement node.
type Status int

const (
	Satisfied Status = iota
	Unsatisfied
	Indeterminate
)

func (s Status) String() string {
	switch s {
	case Satisfied:
		return "satisfied"
	case Unsatisfied:
		return "unsatisfied"
	default:
		return "indeterminate"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	switch text {
	case "satisfied":
		*s = Satisfied
	case "unsatisfied":
		*s = Unsatisfied
	case "indeterminate":
		*s = Indeterminate
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// Verdict mirrors the shape of the requirement tree it was evaluated
// against, with a status and reason list per node. Rule checks bound
// to a node are reported separately from its structural children.
type Verdict struct {
	Title    string     `json:"title,omitempty"`
	Status   Status     `json:"status"`
	Reasons  []string   `json:"reasons,omitempty"`
	Rules    []*Verdict `json:"rules,omitempty"`
	Children []*Verdict `json:"children,omitempty"`
}

// allOf combines statuses with AND semantics: any unsatisfied wins,
// then any indeterminate, else satisfied.
func allOf(statuses ...Status) Status {
	out := Satisfied
	for _, s := range statuses {
		switch s {
		case Unsatisfied:
			return Unsatisfied
		case Indeterminate:
			out = Indeterminate
		}
	}
	return out
}

// anyOf combines statuses with OR semantics: any satisfied wins, then
// any indeterminate, else unsatisfied. An empty set is satisfied.
func anyOf(statuses ...Status) Status {
	if len(statuses) == 0 {
		return Satisfied
	}
	out := Unsatisfied
	for _, s := range statuses {
		switch s {
		case Satisfied:
			return Satisfied
		case Indeterminate:
			out = Indeterminate
		}
	}
	return out
}
