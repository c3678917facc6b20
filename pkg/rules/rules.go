// Package rules models the fixed vocabulary of auxiliary rules (AR1 to
// AR20) that degree documents attach to requirement-tree nodes. Each
// rule form owns exactly the parameters it needs; anything the decoder
// does not recognize is preserved as an Unknown rule instead of failing
// the surrounding document.
package rules

import (
	"github.com/degreescope/degreescope/pkg/ident"
)

// LevelSpec is the constraint "at level L" vs "at level L or higher".
type LevelSpec struct {
	Level    ident.Level
	OrHigher bool
}

// Kind is the closed set of auxiliary rule forms. The only
// implementations live in this package.
type Kind interface {
	Code() string
	isKind()
}

// AR1: at least N units at level L (or higher).
type AR1 struct {
	N    ident.Units
	Spec LevelSpec
}

// AR2: at most N units at level L.
type AR2 struct {
	N     ident.Units
	Level ident.Level
}

// AR3: exactly N units at level L (or higher).
type AR3 struct {
	N    ident.Units
	Spec LevelSpec
}

// AR4: between N and M units inclusive at level L (or higher).
type AR4 struct {
	N    ident.Units
	M    ident.Units
	Spec LevelSpec
}

// AR5: any plan in list 1 requires co-enrolment in some plan of list 2.
type AR5 struct {
	PlanList1 []ident.ProgramCode
	PlanList2 []ident.ProgramCode
}

// AR6: no plan in list 1 may co-occur with any plan in list 2.
type AR6 struct {
	PlanList1 []ident.ProgramCode
	PlanList2 []ident.ProgramCode
}

// AR7: no more than N units credited from one discipline descriptor.
type AR7 struct {
	N ident.Units
}

// AR9: listed courses grant no credit, unconditionally.
type AR9 struct {
	CourseList []ident.CourseCode
}

// AR10: listed courses grant no credit for students enrolled in any
// listed plan.
type AR10 struct {
	CourseList []ident.CourseCode
	PlanList   []ident.ProgramCode
}

// AR11: listed courses grant no credit unless the student is enrolled
// in a listed plan.
type AR11 struct {
	CourseList []ident.CourseCode
	PlanList   []ident.ProgramCode
}

// AR13: students in PlanList are exempt from CourseList within
// ProgramPlanList.
type AR13 struct {
	PlanList        []ident.ProgramCode
	CourseList      []ident.CourseCode
	ProgramPlanList []ident.ProgramCode
}

// AR15: CourseList must/may be substituted within ProgramPlanList by a
// course from the named lists.
type AR15 struct {
	CourseList      []ident.CourseCode
	Must            bool
	ProgramPlanList []ident.ProgramCode
	Lists           []string
}

// AR16: for PlanList students, CourseList1 must/may be substituted by
// CourseList2 within ProgramPlanList.
type AR16 struct {
	PlanList        []ident.ProgramCode
	CourseList1     []ident.CourseCode
	Must            bool
	CourseList2     []ident.CourseCode
	ProgramPlanList []ident.ProgramCode
}

// AR17: for PlanList students, CourseList must/may be substituted by a
// course from the named lists within ProgramPlanList.
type AR17 struct {
	PlanList        []ident.ProgramCode
	CourseList      []ident.CourseCode
	Must            bool
	ProgramPlanList []ident.ProgramCode
	Lists           []string
}

// AR18: CourseList counts only toward the Program side of a
// dual-program enrolment.
type AR18 struct {
	CourseList []ident.CourseCode
	Program    ident.ProgramCode
}

// AR19: for PlanList students, CourseList counts only toward Program.
type AR19 struct {
	PlanList   []ident.ProgramCode
	CourseList []ident.CourseCode
	Program    ident.ProgramCode
}

// AR20: for students in Plan1 and any of PlanList1, CourseList counts
// only toward PlanList2.
type AR20 struct {
	Plan1      ident.ProgramCode
	PlanList1  []ident.ProgramCode
	CourseList []ident.CourseCode
	PlanList2  []ident.ProgramCode
}

// Unknown preserves a rule the decoder could not map to a known form:
// unrecognized codes, and known codes with missing or mistyped
// parameters. It always evaluates to an indeterminate verdict so the
// document still parses and a human can review the raw text.
type Unknown struct {
	RuleCode  string
	Text      string
	RawParams []string
}

func (AR1) Code() string { return "AR1" }
func (AR2) Code() string { return "AR2" }
func (AR3) Code() string { return "AR3" }
func (AR4) Code() string { return "AR4" }
func (AR5) Code() string { return "AR5" }
func (AR6) Code() string { return "AR6" }
func (AR7) Code() string { return "AR7" }
func (AR9) Code() string { return "AR9" }
func (AR10) Code() string { return "AR10" }
func (AR11) Code() string { return "AR11" }
func (AR13) Code() string { return "AR13" }
func (AR15) Code() string { return "AR15" }
func (AR16) Code() string { return "AR16" }
func (AR17) Code() string { return "AR17" }
func (AR18) Code() string { return "AR18" }
func (AR19) Code() string { return "AR19" }
func (AR20) Code() string { return "AR20" }

func (u Unknown) Code() string { return u.RuleCode }

func (AR1) isKind() {}
func (AR2) isKind() {}
func (AR3) isKind() {}
func (AR4) isKind() {}
func (AR5) isKind() {}
func (AR6) isKind() {}
func (AR7) isKind() {}
func (AR9) isKind() {}
func (AR10) isKind() {}
func (AR11) isKind() {}
func (AR13) isKind() {}
func (AR15) isKind() {}
func (AR16) isKind() {}
func (AR17) isKind() {}
func (AR18) isKind() {}
func (AR19) isKind() {}
func (AR20) isKind() {}
func (Unknown) isKind() {}

// Rule binds a rule form to the part of the requirement tree it
// applies to.
type Rule struct {
	Part ident.PartLabel
	Kind Kind
}
