// Package verify walks a requirement tree against a student's course
// and plan selection and produces a verdict tree. Evaluation is pure:
// no I/O, no shared mutable state, and it never fails — problems
// degrade to unsatisfied or indeterminate verdicts with reasons.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/degreescope/degreescope/pkg/degree"
	"github.com/degreescope/degreescope/pkg/ident"
)

// Evaluator checks selections against requirement trees.
type Evaluator struct {
	Catalog Catalog

	// DisciplineKey groups courses for AR7's per-discipline unit cap.
	// Upstream never defines how the discipline descriptor is derived,
	// so the key is injectable; the default is the course code prefix.
	DisciplineKey func(ident.CourseCode) string
}

// Evaluate runs a default Evaluator over the whole program.
func Evaluate(req *degree.Requirements, sel Selection, cat Catalog) *Verdict {
	return (&Evaluator{Catalog: cat}).Evaluate(req, sel)
}

// Evaluate checks every component of the program plus its aggregate
// unit bounds.
func (e *Evaluator) Evaluate(req *degree.Requirements, sel Selection) *Verdict {
	root := &Verdict{Title: firstNonEmpty(req.Name, req.Code)}

	var statuses []Status
	for i := range req.Components {
		comp := &req.Components[i]
		ctx := newContext(sel, req.Program)
		ctx.reserveReferences(comp.Payload)
		v, _ := e.evalPayload(comp.Payload, ctx)
		if v.Title == "" {
			v.Title = comp.Name
		}
		root.Children = append(root.Children, v)
		statuses = append(statuses, v.Status)
	}

	if req.UnitsMinimum != nil || req.UnitsMaximum != nil {
		total, missing := e.totalUnits(sel.Courses)
		if len(missing) > 0 {
			statuses = append(statuses, Indeterminate)
			root.Reasons = append(root.Reasons, "missing catalog data for "+strings.Join(missing, ", "))
		} else {
			if req.UnitsMinimum != nil && total < *req.UnitsMinimum {
				statuses = append(statuses, Unsatisfied)
				root.Reasons = append(root.Reasons, fmt.Sprintf("%d units selected, program requires at least %d", total, *req.UnitsMinimum))
			}
			if req.UnitsMaximum != nil && total > *req.UnitsMaximum {
				statuses = append(statuses, Unsatisfied)
				root.Reasons = append(root.Reasons, fmt.Sprintf("%d units selected, program allows at most %d", total, *req.UnitsMaximum))
			}
		}
	}

	root.Status = allOf(statuses...)
	return root
}

// EvaluatePayload checks a single payload tree, e.g. one component.
func (e *Evaluator) EvaluatePayload(p degree.Payload, sel Selection, program *ident.ProgramCode) *Verdict {
	ctx := newContext(sel, program)
	ctx.reserveReferences(p)
	v, _ := e.evalPayload(p, ctx)
	return v
}

type evalContext struct {
	sel     Selection
	program *ident.ProgramCode

	// Rule effects accumulated on the path from the component root.
	excluded map[ident.CourseCode]string
	exempt   map[ident.CourseCode]string
	subs     map[ident.CourseCode][]ident.CourseCode
	subOpen  map[ident.CourseCode]string

	// used tracks courses already consumed by a slot in this
	// component, so wildcards cannot double count them. reserved holds
	// every course a specific reference in the component names, at any
	// depth; wildcards leave those courses for their references.
	used     map[ident.CourseCode]bool
	reserved map[ident.CourseCode]bool
}

func newContext(sel Selection, program *ident.ProgramCode) *evalContext {
	return &evalContext{
		sel:      sel,
		program:  program,
		excluded: map[ident.CourseCode]string{},
		exempt:   map[ident.CourseCode]string{},
		subs:     map[ident.CourseCode][]ident.CourseCode{},
		subOpen:  map[ident.CourseCode]string{},
		used:     map[ident.CourseCode]bool{},
		reserved: map[ident.CourseCode]bool{},
	}
}

// reserveReferences walks a component's payload and marks every course
// a specific reference names, so first-fit accounting spans the whole
// component rather than direct siblings only.
func (ctx *evalContext) reserveReferences(p degree.Payload) {
	switch leaf := p.(type) {
	case *degree.Node:
		for _, child := range leaf.Body {
			ctx.reserveReferences(child)
		}
	case *degree.CurriculumReference:
		if leaf.Ref.Course != nil {
			ctx.reserved[*leaf.Ref.Course] = true
		}
	}
}

func (ctx *evalContext) programIn(list []ident.ProgramCode) bool {
	if ctx.program == nil {
		return false
	}
	for _, p := range list {
		if p == *ctx.program {
			return true
		}
	}
	return false
}

func (e *Evaluator) evalPayload(p degree.Payload, ctx *evalContext) (*Verdict, map[ident.CourseCode]bool) {
	switch leaf := p.(type) {
	case *degree.Node:
		return e.evalNode(leaf, ctx)
	case *degree.CurriculumReference:
		return e.evalReference(leaf.Ref, ctx)
	case *degree.EquivalenceGroup:
		return e.evalEquivalence(leaf, ctx)
	case *degree.WildCardItem:
		return e.evalWildcard(leaf, ctx)
	}
	return &Verdict{
		Status:  Indeterminate,
		Reasons: []string{"empty requirement payload"},
	}, map[ident.CourseCode]bool{}
}

func (e *Evaluator) evalNode(n *degree.Node, ctx *evalContext) (*Verdict, map[ident.CourseCode]bool) {
	v := &Verdict{}
	childCtx := ctx
	logic := degree.Logic{}
	hdr := n.Header
	if hdr != nil {
		v.Title = hdr.Title
		logic = hdr.Logic
		childCtx = ctx.withRuleEffects(hdr)
	}

	// Courses named by specific references were reserved at the
	// component root, so a wildcard at any depth never steals a course
	// a reference slot names, regardless of body order.
	credited := make(map[ident.CourseCode]bool)
	var childStatuses []Status
	for _, child := range n.Body {
		cv, cc := e.evalPayload(child, childCtx)
		v.Children = append(v.Children, cv)
		childStatuses = append(childStatuses, cv.Status)
		for c := range cc {
			credited[c] = true
		}
	}

	var statuses []Status
	if len(n.Body) > 0 {
		switch logic.Kind {
		case degree.LogicOr:
			statuses = append(statuses, anyOf(childStatuses...))
		case degree.LogicUnknown:
			statuses = append(statuses, Indeterminate)
			v.Reasons = append(v.Reasons, "unrecognized rule logic: "+logic.Raw)
		default:
			// No declared logic behaves like AND over children.
			statuses = append(statuses, allOf(childStatuses...))
		}
	}

	if hdr != nil {
		for _, rule := range hdr.AuxiliaryRules {
			rv := e.evalRule(rule.Kind, ctx)
			v.Rules = append(v.Rules, rv)
			statuses = append(statuses, rv.Status)
		}
		if hdr.SelectionRule != nil {
			rv := e.evalRule(hdr.SelectionRule.Kind, ctx)
			rv.Title = "selection rule " + rv.Title
			v.Rules = append(v.Rules, rv)
			statuses = append(statuses, rv.Status)
		}

		if hdr.UnitsMin != nil || hdr.UnitsMax != nil {
			subtotal, missing := e.totalUnits(sortedCourses(credited))
			if len(missing) > 0 {
				statuses = append(statuses, Indeterminate)
				v.Reasons = append(v.Reasons, "missing catalog data for "+strings.Join(missing, ", "))
			} else {
				if hdr.UnitsMin != nil && subtotal < *hdr.UnitsMin {
					statuses = append(statuses, Unsatisfied)
					v.Reasons = append(v.Reasons, fmt.Sprintf("%d units credited, at least %d required", subtotal, *hdr.UnitsMin))
				}
				if hdr.UnitsMax != nil && subtotal > *hdr.UnitsMax {
					statuses = append(statuses, Unsatisfied)
					v.Reasons = append(v.Reasons, fmt.Sprintf("%d units credited, at most %d allowed", subtotal, *hdr.UnitsMax))
				}
			}
		}
	}

	v.Status = allOf(statuses...)
	return v, credited
}

func (e *Evaluator) evalReference(ref degree.CatalogRef, ctx *evalContext) (*Verdict, map[ident.CourseCode]bool) {
	v := &Verdict{Title: firstNonEmpty(ref.Code, ref.Name)}
	credited := map[ident.CourseCode]bool{}

	if ref.Course == nil {
		if ref.Code == "" {
			v.Status = Indeterminate
			v.Reasons = append(v.Reasons, "reference has no code")
			return v, credited
		}
		// Plan and program references match against enrolments.
		if plan, err := ident.ParseProgramCode(ref.Code); err == nil {
			if ctx.sel.HasPlan(plan) {
				v.Status = Satisfied
			} else {
				v.Status = Unsatisfied
				v.Reasons = append(v.Reasons, ref.Code+" is not among the enrolled plans")
			}
			return v, credited
		}
		v.Status = Indeterminate
		v.Reasons = append(v.Reasons, "reference code matches no known grammar: "+ref.Code)
		return v, credited
	}

	course := *ref.Course
	if reason, ok := ctx.excluded[course]; ok {
		v.Status = Unsatisfied
		v.Reasons = append(v.Reasons, reason)
		return v, credited
	}
	if reason, ok := ctx.exempt[course]; ok {
		v.Status = Satisfied
		v.Reasons = append(v.Reasons, reason)
		return v, credited
	}
	if ctx.sel.HasCourse(course) {
		v.Status = Satisfied
		ctx.used[course] = true
		credited[course] = true
		return v, credited
	}
	for _, sub := range ctx.subs[course] {
		if _, excl := ctx.excluded[sub]; excl {
			continue
		}
		if ctx.sel.HasCourse(sub) {
			v.Status = Satisfied
			v.Reasons = append(v.Reasons, "satisfied by substitute "+sub.String())
			ctx.used[sub] = true
			credited[sub] = true
			return v, credited
		}
	}
	if reason, ok := ctx.subOpen[course]; ok {
		v.Status = Indeterminate
		v.Reasons = append(v.Reasons, reason)
		return v, credited
	}
	v.Status = Unsatisfied
	v.Reasons = append(v.Reasons, course.String()+" is not in the selection")
	return v, credited
}

func (e *Evaluator) evalEquivalence(g *degree.EquivalenceGroup, ctx *evalContext) (*Verdict, map[ident.CourseCode]bool) {
	members := make([]degree.EquivalenceMember, len(g.Members))
	copy(members, g.Members)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].OrderNumber < members[j].OrderNumber
	})

	v := &Verdict{Title: equivalenceTitle(members)}
	indeterminate := false
	for _, m := range members {
		mv, mc := e.evalReference(m.Ref, ctx)
		if mv.Status == Satisfied {
			v.Status = Satisfied
			v.Reasons = append(v.Reasons, "satisfied by "+firstNonEmpty(m.Ref.Code, m.Ref.Name))
			return v, mc
		}
		if mv.Status == Indeterminate {
			indeterminate = true
		}
	}
	if indeterminate {
		v.Status = Indeterminate
		v.Reasons = append(v.Reasons, "no member could be fully checked")
	} else {
		v.Status = Unsatisfied
		v.Reasons = append(v.Reasons, "no member of the equivalence group is in the selection")
	}
	return v, map[ident.CourseCode]bool{}
}

func (e *Evaluator) evalWildcard(w *degree.WildCardItem, ctx *evalContext) (*Verdict, map[ident.CourseCode]bool) {
	credited := map[ident.CourseCode]bool{}
	pattern := strings.ToUpper(strings.TrimRight(firstNonEmpty(w.Code, w.OrgCode), "*"))
	v := &Verdict{Title: pattern + " elective"}
	if pattern == "" {
		v.Status = Indeterminate
		v.Reasons = append(v.Reasons, "wildcard has no code or org pattern")
		return v, credited
	}
	for _, c := range ctx.sel.Courses {
		if ctx.used[c] || ctx.reserved[c] {
			continue
		}
		if _, excl := ctx.excluded[c]; excl {
			continue
		}
		if strings.HasPrefix(c.String(), pattern) {
			ctx.used[c] = true
			credited[c] = true
			v.Status = Satisfied
			v.Reasons = append(v.Reasons, "matched by "+c.String())
			return v, credited
		}
	}
	v.Status = Unsatisfied
	v.Reasons = append(v.Reasons, "no unused course in the selection matches "+pattern)
	return v, credited
}

func equivalenceTitle(members []degree.EquivalenceMember) string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, firstNonEmpty(m.Ref.Code, m.Ref.Name))
	}
	return "one of " + strings.Join(names, ", ")
}

func (e *Evaluator) lookup(c ident.CourseCode) (CourseFacts, bool) {
	if e.Catalog == nil {
		return CourseFacts{}, false
	}
	return e.Catalog.Lookup(c)
}

// totalUnits sums catalog units for the given courses, reporting the
// codes it has no facts for.
func (e *Evaluator) totalUnits(courses []ident.CourseCode) (ident.Units, []string) {
	var total ident.Units
	var missing []string
	for _, c := range courses {
		facts, ok := e.lookup(c)
		if !ok {
			missing = append(missing, c.String())
			continue
		}
		total += facts.Units
	}
	return total, missing
}

func sortedCourses(set map[ident.CourseCode]bool) []ident.CourseCode {
	out := make([]ident.CourseCode, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
