package verify

import "github.com/degreescope/degreescope/pkg/ident"

// Selection is the student's side of an evaluation: completed or
// enrolled courses plus the plans and programs the student is enrolled
// in. It is supplied by the caller and never modified.
type Selection struct {
	Courses []ident.CourseCode
	Plans   []ident.ProgramCode
}

func (s Selection) HasCourse(code ident.CourseCode) bool {
	for _, c := range s.Courses {
		if c == code {
			return true
		}
	}
	return false
}

func (s Selection) HasPlan(code ident.ProgramCode) bool {
	for _, p := range s.Plans {
		if p == code {
			return true
		}
	}
	return false
}

func (s Selection) HasAnyPlan(codes []ident.ProgramCode) bool {
	for _, c := range codes {
		if s.HasPlan(c) {
			return true
		}
	}
	return false
}

// CourseFacts are the catalog attributes the evaluator needs for a
// course referenced only by code.
type CourseFacts struct {
	Level  ident.Level
	Units  ident.Units
	Active bool
}

// Catalog resolves course facts. Lookups that miss make the dependent
// checks indeterminate rather than failing the evaluation.
type Catalog interface {
	Lookup(code ident.CourseCode) (CourseFacts, bool)
}

// MapCatalog is an in-memory Catalog keyed by course code string.
type MapCatalog map[string]CourseFacts

func (m MapCatalog) Lookup(code ident.CourseCode) (CourseFacts, bool) {
	facts, ok := m[code.String()]
	return facts, ok
}
