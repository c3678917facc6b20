package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/degreescope/degreescope/pkg/degree"
	"github.com/degreescope/degreescope/pkg/ident"
	"github.com/degreescope/degreescope/pkg/rules"
)

// withRuleEffects derives the context the node's subtree is evaluated
// under: exclusions, exemptions and substitutions declared by the
// node's rules apply to every leaf below it. The used set stays shared
// so first-fit accounting spans the whole component.
func (ctx *evalContext) withRuleEffects(hdr *degree.Header) *evalContext {
	if len(hdr.AuxiliaryRules) == 0 {
		return ctx
	}
	child := &evalContext{
		sel:      ctx.sel,
		program:  ctx.program,
		excluded: copyReasons(ctx.excluded),
		exempt:   copyReasons(ctx.exempt),
		subs:     copySubs(ctx.subs),
		subOpen:  copyReasons(ctx.subOpen),
		used:     ctx.used,
		reserved: ctx.reserved,
	}
	for _, rule := range hdr.AuxiliaryRules {
		child.applyEffect(rule.Kind)
	}
	return child
}

func (ctx *evalContext) applyEffect(kind rules.Kind) {
	switch k := kind.(type) {
	case rules.AR9:
		for _, c := range k.CourseList {
			ctx.excluded[c] = c.String() + " grants no credit toward this component (AR9)"
		}
	case rules.AR10:
		if ctx.sel.HasAnyPlan(k.PlanList) {
			for _, c := range k.CourseList {
				ctx.excluded[c] = c.String() + " grants no credit for students in " + joinPlans(k.PlanList) + " (AR10)"
			}
		}
	case rules.AR11:
		if !ctx.sel.HasAnyPlan(k.PlanList) {
			for _, c := range k.CourseList {
				ctx.excluded[c] = c.String() + " grants no credit unless enrolled in " + joinPlans(k.PlanList) + " (AR11)"
			}
		}
	case rules.AR13:
		if ctx.sel.HasAnyPlan(k.PlanList) && ctx.programIn(k.ProgramPlanList) {
			for _, c := range k.CourseList {
				ctx.exempt[c] = c.String() + " waived for students in " + joinPlans(k.PlanList) + " (AR13)"
			}
		}
	case rules.AR15:
		if ctx.programIn(k.ProgramPlanList) {
			for _, c := range k.CourseList {
				ctx.subOpen[c] = c.String() + " may be substituted from " + strings.Join(k.Lists, ", ") + " (AR15)"
			}
		}
	case rules.AR16:
		if ctx.sel.HasAnyPlan(k.PlanList) && ctx.programIn(k.ProgramPlanList) {
			for _, c := range k.CourseList1 {
				ctx.subs[c] = append(ctx.subs[c], k.CourseList2...)
			}
		}
	case rules.AR17:
		if ctx.sel.HasAnyPlan(k.PlanList) && ctx.programIn(k.ProgramPlanList) {
			for _, c := range k.CourseList {
				ctx.subOpen[c] = c.String() + " may be substituted from " + strings.Join(k.Lists, ", ") + " (AR17)"
			}
		}
	case rules.AR18:
		if ctx.program != nil && *ctx.program != k.Program {
			for _, c := range k.CourseList {
				ctx.excluded[c] = c.String() + " counts only toward the " + k.Program.String() + " component (AR18)"
			}
		}
	case rules.AR19:
		if ctx.sel.HasAnyPlan(k.PlanList) && ctx.program != nil && *ctx.program != k.Program {
			for _, c := range k.CourseList {
				ctx.excluded[c] = c.String() + " counts only toward the " + k.Program.String() + " component (AR19)"
			}
		}
	case rules.AR20:
		if ctx.sel.HasPlan(k.Plan1) && ctx.sel.HasAnyPlan(k.PlanList1) && ctx.program != nil && !containsPlan(k.PlanList2, *ctx.program) {
			for _, c := range k.CourseList {
				ctx.excluded[c] = c.String() + " counts only toward " + joinPlans(k.PlanList2) + " (AR20)"
			}
		}
	}
}

// evalRule checks one rule form against the selection. Every form
// resolves to a status; nothing here can fail.
func (e *Evaluator) evalRule(kind rules.Kind, ctx *evalContext) *Verdict {
	v := &Verdict{Title: kind.Code()}

	switch k := kind.(type) {
	case rules.AR1:
		qual, missing := e.qualifyingUnits(ctx.sel, k.Spec.Level, k.Spec.OrHigher)
		if len(missing) > 0 {
			v.Status = Indeterminate
			v.Reasons = append(v.Reasons, "missing catalog data for "+strings.Join(missing, ", "))
			return v
		}
		if qual >= k.N {
			v.Status = Satisfied
		} else {
			v.Status = Unsatisfied
			v.Reasons = append(v.Reasons, fmt.Sprintf("%d qualifying units at level %s, at least %d required", qual, levelText(k.Spec), k.N))
		}

	case rules.AR2:
		qual, missing := e.qualifyingUnits(ctx.sel, k.Level, false)
		if len(missing) > 0 {
			v.Status = Indeterminate
			v.Reasons = append(v.Reasons, "missing catalog data for "+strings.Join(missing, ", "))
			return v
		}
		if qual <= k.N {
			v.Status = Satisfied
		} else {
			v.Status = Unsatisfied
			v.Reasons = append(v.Reasons, fmt.Sprintf("%d units at level %d000, at most %d allowed", qual, k.Level, k.N))
		}

	case rules.AR3:
		qual, missing := e.qualifyingUnits(ctx.sel, k.Spec.Level, k.Spec.OrHigher)
		if len(missing) > 0 {
			v.Status = Indeterminate
			v.Reasons = append(v.Reasons, "missing catalog data for "+strings.Join(missing, ", "))
			return v
		}
		if qual == k.N {
			v.Status = Satisfied
		} else {
			v.Status = Unsatisfied
			v.Reasons = append(v.Reasons, fmt.Sprintf("%d qualifying units at level %s, exactly %d required", qual, levelText(k.Spec), k.N))
		}

	case rules.AR4:
		qual, missing := e.qualifyingUnits(ctx.sel, k.Spec.Level, k.Spec.OrHigher)
		if len(missing) > 0 {
			v.Status = Indeterminate
			v.Reasons = append(v.Reasons, "missing catalog data for "+strings.Join(missing, ", "))
			return v
		}
		if qual >= k.N && qual <= k.M {
			v.Status = Satisfied
		} else {
			v.Status = Unsatisfied
			v.Reasons = append(v.Reasons, fmt.Sprintf("%d qualifying units at level %s, between %d and %d required", qual, levelText(k.Spec), k.N, k.M))
		}

	case rules.AR5:
		if !ctx.sel.HasAnyPlan(k.PlanList1) {
			v.Status = Satisfied
			return v
		}
		if ctx.sel.HasAnyPlan(k.PlanList2) {
			v.Status = Satisfied
		} else {
			v.Status = Unsatisfied
			v.Reasons = append(v.Reasons, joinPlans(k.PlanList1)+" requires co-enrolment in one of "+joinPlans(k.PlanList2))
		}

	case rules.AR6:
		if ctx.sel.HasAnyPlan(k.PlanList1) && ctx.sel.HasAnyPlan(k.PlanList2) {
			v.Status = Unsatisfied
			v.Reasons = append(v.Reasons, joinPlans(k.PlanList1)+" may not be combined with "+joinPlans(k.PlanList2))
		} else {
			v.Status = Satisfied
		}

	case rules.AR7:
		totals := map[string]ident.Units{}
		var missing []string
		for _, c := range ctx.sel.Courses {
			facts, ok := e.lookup(c)
			if !ok {
				missing = append(missing, c.String())
				continue
			}
			totals[e.disciplineKey(c)] += facts.Units
		}
		if len(missing) > 0 {
			v.Status = Indeterminate
			v.Reasons = append(v.Reasons, "missing catalog data for "+strings.Join(missing, ", "))
			return v
		}
		v.Status = Satisfied
		disciplines := make([]string, 0, len(totals))
		for d := range totals {
			disciplines = append(disciplines, d)
		}
		sort.Strings(disciplines)
		for _, d := range disciplines {
			if totals[d] > k.N {
				v.Status = Unsatisfied
				v.Reasons = append(v.Reasons, fmt.Sprintf("%d units from %s, at most %d allowed per discipline", totals[d], d, k.N))
			}
		}

	case rules.AR9:
		v.Status = Satisfied
		v.Reasons = append(v.Reasons, joinCourses(k.CourseList)+" excluded from credit")

	case rules.AR10:
		v.Status = Satisfied
		if ctx.sel.HasAnyPlan(k.PlanList) {
			v.Reasons = append(v.Reasons, joinCourses(k.CourseList)+" excluded from credit for "+joinPlans(k.PlanList))
		}

	case rules.AR11:
		v.Status = Satisfied
		if !ctx.sel.HasAnyPlan(k.PlanList) {
			v.Reasons = append(v.Reasons, joinCourses(k.CourseList)+" excluded from credit without enrolment in "+joinPlans(k.PlanList))
		}

	case rules.AR13:
		if ctx.program == nil {
			v.Status = Indeterminate
			v.Reasons = append(v.Reasons, "program context unknown, exemption cannot be applied")
			return v
		}
		v.Status = Satisfied

	case rules.AR15:
		v.Status = e.substitutionStatus(ctx, v, ctx.programIn(k.ProgramPlanList), k.Must, k.CourseList)

	case rules.AR16:
		applies := ctx.sel.HasAnyPlan(k.PlanList) && ctx.programIn(k.ProgramPlanList)
		v.Status = e.substitutionStatus(ctx, v, applies, k.Must, k.CourseList1)

	case rules.AR17:
		applies := ctx.sel.HasAnyPlan(k.PlanList) && ctx.programIn(k.ProgramPlanList)
		v.Status = e.substitutionStatus(ctx, v, applies, k.Must, k.CourseList)

	case rules.AR18:
		if ctx.program == nil {
			v.Status = Indeterminate
			v.Reasons = append(v.Reasons, "program context unknown, dual-program counting cannot be applied")
			return v
		}
		v.Status = Satisfied

	case rules.AR19:
		if !ctx.sel.HasAnyPlan(k.PlanList) {
			v.Status = Satisfied
			return v
		}
		if ctx.program == nil {
			v.Status = Indeterminate
			v.Reasons = append(v.Reasons, "program context unknown, dual-program counting cannot be applied")
			return v
		}
		v.Status = Satisfied

	case rules.AR20:
		if !ctx.sel.HasPlan(k.Plan1) || !ctx.sel.HasAnyPlan(k.PlanList1) {
			v.Status = Satisfied
			return v
		}
		if ctx.program == nil {
			v.Status = Indeterminate
			v.Reasons = append(v.Reasons, "program context unknown, dual-program counting cannot be applied")
			return v
		}
		v.Status = Satisfied

	case rules.Unknown:
		v.Status = Indeterminate
		if k.Text != "" {
			v.Reasons = append(v.Reasons, k.Text)
		}
		v.Reasons = append(v.Reasons, "unrecognized rule "+k.RuleCode+", needs manual review")

	default:
		v.Status = Indeterminate
		v.Reasons = append(v.Reasons, "unhandled rule form "+kind.Code())
	}

	return v
}

// substitutionStatus resolves the rule-level check for the three
// substitution forms: a mandatory substitution fails while the
// original course is still selected; otherwise the permission itself
// holds.
func (e *Evaluator) substitutionStatus(ctx *evalContext, v *Verdict, applies, must bool, originals []ident.CourseCode) Status {
	if !applies {
		return Satisfied
	}
	if must {
		for _, c := range originals {
			if ctx.sel.HasCourse(c) {
				v.Reasons = append(v.Reasons, c.String()+" must be substituted but is still selected")
				return Unsatisfied
			}
		}
	}
	return Satisfied
}

// qualifyingUnits sums the units of selection courses at the given
// level. The level itself is derivable from the course code, but the
// unit count needs catalog facts; courses the catalog cannot resolve
// are reported as missing.
func (e *Evaluator) qualifyingUnits(sel Selection, level ident.Level, orHigher bool) (ident.Units, []string) {
	var total ident.Units
	var missing []string
	for _, c := range sel.Courses {
		facts, ok := e.lookup(c)
		lvl := c.Level()
		if ok && facts.Level != 0 {
			lvl = facts.Level
		}
		if orHigher {
			if lvl < level {
				continue
			}
		} else if lvl != level {
			continue
		}
		if !ok {
			missing = append(missing, c.String())
			continue
		}
		total += facts.Units
	}
	return total, missing
}

func (e *Evaluator) disciplineKey(c ident.CourseCode) string {
	if e.DisciplineKey != nil {
		return e.DisciplineKey(c)
	}
	return c.Prefix
}

func levelText(spec rules.LevelSpec) string {
	if spec.OrHigher {
		return fmt.Sprintf("%d000 or higher", spec.Level)
	}
	return fmt.Sprintf("%d000", spec.Level)
}

func joinPlans(plans []ident.ProgramCode) string {
	parts := make([]string, len(plans))
	for i, p := range plans {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

func joinCourses(courses []ident.CourseCode) string {
	parts := make([]string, len(courses))
	for i, c := range courses {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

func copyReasons(m map[ident.CourseCode]string) map[ident.CourseCode]string {
	out := make(map[ident.CourseCode]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copySubs(m map[ident.CourseCode][]ident.CourseCode) map[ident.CourseCode][]ident.CourseCode {
	out := make(map[ident.CourseCode][]ident.CourseCode, len(m))
	for k, v := range m {
		out[k] = append([]ident.CourseCode(nil), v...)
	}
	return out
}

func containsPlan(list []ident.ProgramCode, p ident.ProgramCode) bool {
	for _, candidate := range list {
		if candidate == p {
			return true
		}
	}
	return false
}
