// Package degree models a program's published requirement document as
// a typed tree: components with nested node/leaf payloads, headers
// carrying unit bounds and auxiliary rules, and leaves pointing at
// catalog entries. Trees are built once by the ingestion adapter and
// never mutated afterwards, so they are safe to share across
// concurrent evaluations.
package degree

import (
	"strings"

	"github.com/degreescope/degreescope/pkg/ident"
	"github.com/degreescope/degreescope/pkg/rules"
)

// LogicKind enumerates the recognized rule-combination logics. The
// upstream field is free text, so anything unrecognized is kept as
// LogicUnknown with the raw value preserved; the evaluator treats
// those conservatively instead of guessing.
type LogicKind int

const (
	LogicNone LogicKind = iota
	LogicAnd
	LogicOr
	LogicUnknown
)

type Logic struct {
	Kind LogicKind
	Raw  string
}

// ParseLogic maps the free-form ruleLogic field onto a LogicKind.
func ParseLogic(raw string) Logic {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return Logic{Kind: LogicNone}
	case "and", "all":
		return Logic{Kind: LogicAnd, Raw: raw}
	case "or", "any":
		return Logic{Kind: LogicOr, Raw: raw}
	}
	return Logic{Kind: LogicUnknown, Raw: raw}
}

// Header is the per-node metadata of a requirement group.
type Header struct {
	PartUID       string
	Logic         Logic
	PartReference string
	// Part is the parsed form of PartReference; nil when the reference
	// is absent or does not match the part-label grammar.
	Part               ident.PartLabel
	UnitsMin           *ident.Units
	UnitsMax           *ident.Units
	AuxiliaryRules     []rules.Rule
	SelectionRule      *rules.Rule
	Title              string
	SummaryDescription string
	PartType           string
	Notes              string
}

// CatalogRef is the catalog entry a leaf points at.
type CatalogRef struct {
	Code string
	// Course is set when Code parses as a course code; program-level
	// references leave it nil.
	Course       *ident.CourseCode
	OrgName      string
	OrgCode      string
	Type         string
	Subtype      string
	Name         string
	State        string
	UnitsMinimum *ident.Units
	UnitsMaximum *ident.Units
}

// CurriculumReference is a leaf requiring one specific catalog entry.
type CurriculumReference struct {
	OrderNumber *int64
	Notes       string
	Ref         CatalogRef
}

// EquivalenceMember is one alternative inside an equivalence group.
type EquivalenceMember struct {
	OrderNumber int64
	Notes       string
	Ref         CatalogRef
}

// EquivalenceGroup is a leaf satisfied by any one of its members.
type EquivalenceGroup struct {
	OrderNumber *int64
	Notes       string
	Members     []EquivalenceMember
}

// WildCardItem is a leaf satisfied by any course matching an
// organizational or code-prefix pattern.
type WildCardItem struct {
	OrderNumber      *int64
	Notes            string
	Code             string
	OrgName          string
	OrgCode          string
	IncludeChildOrgs bool
}

// Payload is the recursive requirement tree: either a Node or one of
// the three leaf kinds.
type Payload interface {
	isPayload()
}

// Node groups child payloads under a header.
type Node struct {
	Header *Header
	Body   []Payload
}

func (*Node) isPayload()                {}
func (*CurriculumReference) isPayload() {}
func (*EquivalenceGroup) isPayload()    {}
func (*WildCardItem) isPayload()        {}

// Component is a named top-level entry in a program's requirements.
type Component struct {
	InternalID    int64
	IntegrationID string
	Name          string
	Type          string
	Payload       Payload
}

// Requirements is one program's full requirement structure for a year.
type Requirements struct {
	Code string
	// Program is set when Code parses as a program code.
	Program      *ident.ProgramCode
	Year         string
	Name         string
	Type         string
	Subtype      string
	OrgName      string
	OrgCode      string
	State        string
	UnitsMinimum *ident.Units
	UnitsMaximum *ident.Units
	Components   []Component
}

// Params identifies the document: program type, code and year.
type Params struct {
	Type string
	Code string
	Year string
}

type Availability struct {
	Suspension bool
	Available  bool
}

type Status struct {
	NoLongerOffered bool
	Domestic        Availability
	// Alternate keeps the raw JSON of the alternate-offering blob; it
	// is display-only data.
	Alternate string
}

// Document is the ingested top-level degree document.
type Document struct {
	Title        string
	Params       Params
	Status       Status
	Requirements Requirements
	YearOptions  []string
	// Routes keeps the raw JSON per route name.
	Routes map[string]string
}

// Skip records a piece of the raw document the adapter could not use.
// Skips never abort ingestion of siblings.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}
