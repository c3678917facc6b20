package rules

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/degreescope/degreescope/pkg/ident"
)

// Param is one entry of a rule's wire parameter bag, as found in the
// document's auxiliaryRules records. Value keeps the raw JSON value:
// upstream mixes integers, strings, objects and arrays of objects for
// the same parameter names across documents.
type Param struct {
	Name  string
	Type  string
	Value gjson.Result
}

// Decode maps a rule code plus its parameter bag onto a typed Kind.
// Unknown codes and known codes with missing or mistyped required
// parameters degrade to Unknown; Decode never fails.
func Decode(code, text string, params []Param) Kind {
	b := make(bag, len(params))
	for _, p := range params {
		b[normalizeName(p.Name)] = p.Value
	}
	if kind, ok := decodeKnown(strings.ToUpper(strings.TrimSpace(code)), b); ok {
		return kind
	}
	raw := make([]string, 0, len(params))
	for _, p := range params {
		raw = append(raw, p.Name+"="+p.Value.Raw)
	}
	return Unknown{RuleCode: code, Text: text, RawParams: raw}
}

func decodeKnown(code string, b bag) (Kind, bool) {
	switch code {
	case "AR1":
		n, ok1 := b.units("n")
		spec, ok2 := b.levelSpec()
		if !ok1 || !ok2 {
			return nil, false
		}
		return AR1{N: n, Spec: spec}, true
	case "AR2":
		n, ok1 := b.units("n")
		level, ok2 := b.level("level")
		if !ok1 || !ok2 {
			return nil, false
		}
		return AR2{N: n, Level: level}, true
	case "AR3":
		n, ok1 := b.units("n")
		spec, ok2 := b.levelSpec()
		if !ok1 || !ok2 {
			return nil, false
		}
		return AR3{N: n, Spec: spec}, true
	case "AR4":
		n, ok1 := b.units("n")
		m, ok2 := b.units("m")
		spec, ok3 := b.levelSpec()
		if !ok1 || !ok2 || !ok3 {
			return nil, false
		}
		return AR4{N: n, M: m, Spec: spec}, true
	case "AR5":
		l1, ok1 := b.plans("planlist1")
		l2, ok2 := b.plans("planlist2")
		if !ok1 || !ok2 {
			return nil, false
		}
		return AR5{PlanList1: l1, PlanList2: l2}, true
	case "AR6":
		l1, ok1 := b.plans("planlist1")
		l2, ok2 := b.plans("planlist2")
		if !ok1 || !ok2 {
			return nil, false
		}
		return AR6{PlanList1: l1, PlanList2: l2}, true
	case "AR7":
		n, ok := b.units("n")
		if !ok {
			return nil, false
		}
		return AR7{N: n}, true
	case "AR9":
		courses, ok := b.courses("courselist")
		if !ok {
			return nil, false
		}
		return AR9{CourseList: courses}, true
	case "AR10":
		courses, ok1 := b.courses("courselist")
		plans, ok2 := b.plans("planlist")
		if !ok1 || !ok2 {
			return nil, false
		}
		return AR10{CourseList: courses, PlanList: plans}, true
	case "AR11":
		courses, ok1 := b.courses("courselist")
		plans, ok2 := b.plans("planlist")
		if !ok1 || !ok2 {
			return nil, false
		}
		return AR11{CourseList: courses, PlanList: plans}, true
	case "AR13":
		plans, ok1 := b.plans("planlist")
		courses, ok2 := b.courses("courselist")
		programPlans, ok3 := b.plans("programplanlist")
		if !ok1 || !ok2 || !ok3 {
			return nil, false
		}
		return AR13{PlanList: plans, CourseList: courses, ProgramPlanList: programPlans}, true
	case "AR15":
		courses, ok1 := b.courses("courselist")
		must, ok2 := b.must()
		programPlans, ok3 := b.plans("programplanlist")
		lists, ok4 := b.lists("lists")
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return nil, false
		}
		return AR15{CourseList: courses, Must: must, ProgramPlanList: programPlans, Lists: lists}, true
	case "AR16":
		plans, ok1 := b.plans("planlist")
		courses1, ok2 := b.courses("courselist1")
		must, ok3 := b.must()
		courses2, ok4 := b.courses("courselist2")
		programPlans, ok5 := b.plans("programplanlist")
		if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
			return nil, false
		}
		return AR16{PlanList: plans, CourseList1: courses1, Must: must, CourseList2: courses2, ProgramPlanList: programPlans}, true
	case "AR17":
		plans, ok1 := b.plans("planlist")
		courses, ok2 := b.courses("courselist")
		must, ok3 := b.must()
		programPlans, ok4 := b.plans("programplanlist")
		lists, ok5 := b.lists("lists")
		if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
			return nil, false
		}
		return AR17{PlanList: plans, CourseList: courses, Must: must, ProgramPlanList: programPlans, Lists: lists}, true
	case "AR18":
		courses, ok1 := b.courses("courselist")
		program, ok2 := b.plan("program")
		if !ok1 || !ok2 {
			return nil, false
		}
		return AR18{CourseList: courses, Program: program}, true
	case "AR19":
		plans, ok1 := b.plans("planlist")
		courses, ok2 := b.courses("courselist")
		program, ok3 := b.plan("program")
		if !ok1 || !ok2 || !ok3 {
			return nil, false
		}
		return AR19{PlanList: plans, CourseList: courses, Program: program}, true
	case "AR20":
		plan1, ok1 := b.plan("plan1")
		planList1, ok2 := b.plans("planlist1")
		courses, ok3 := b.courses("courselist")
		planList2, ok4 := b.plans("planlist2")
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return nil, false
		}
		return AR20{Plan1: plan1, PlanList1: planList1, CourseList: courses, PlanList2: planList2}, true
	}
	return nil, false
}

type bag map[string]gjson.Result

// normalizeName folds the upstream naming styles (COURSE_LIST,
// courseList, course_list) onto one key.
func normalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "")
	name = strings.ReplaceAll(name, " ", "")
	return name
}

func (b bag) get(name string) (gjson.Result, bool) {
	r, ok := b[name]
	if !ok || !r.Exists() {
		return gjson.Result{}, false
	}
	return r, true
}

func (b bag) units(name string) (ident.Units, bool) {
	n, ok := b.integer(name)
	if !ok || n < 0 {
		return 0, false
	}
	return ident.Units(n), true
}

// level accepts both the bare level ("2") and the conventional
// thousands form ("2000") that rule texts use.
func (b bag) level(name string) (ident.Level, bool) {
	n, ok := b.integer(name)
	if !ok || n < 0 {
		return 0, false
	}
	if n >= 1000 {
		n /= 1000
	}
	return ident.Level(n), true
}

func (b bag) levelSpec() (LevelSpec, bool) {
	level, ok1 := b.level("level")
	orHigher, ok2 := b.boolean("orhigher")
	if !ok1 || !ok2 {
		return LevelSpec{}, false
	}
	return LevelSpec{Level: level, OrHigher: orHigher}, true
}

func (b bag) integer(name string) (int64, bool) {
	r, ok := b.get(name)
	if !ok {
		return 0, false
	}
	switch r.Type {
	case gjson.Number:
		return r.Int(), true
	case gjson.String:
		n, err := strconv.ParseInt(strings.TrimSpace(r.String()), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func (b bag) boolean(name string) (bool, bool) {
	r, ok := b.get(name)
	if !ok {
		return false, false
	}
	switch r.Type {
	case gjson.True:
		return true, true
	case gjson.False:
		return false, true
	case gjson.Number:
		return r.Int() != 0, true
	case gjson.String:
		switch strings.ToLower(strings.TrimSpace(r.String())) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	}
	return false, false
}

// must reads the MUST/MAY parameter, which arrives either as a bool or
// as the literal words "must"/"may".
func (b bag) must() (bool, bool) {
	r, ok := b.get("must")
	if !ok {
		return false, false
	}
	if r.Type == gjson.String {
		switch strings.ToLower(strings.TrimSpace(r.String())) {
		case "must":
			return true, true
		case "may":
			return false, true
		}
	}
	return b.boolean("must")
}

func (b bag) courses(name string) ([]ident.CourseCode, bool) {
	toks, ok := b.tokens(name)
	if !ok {
		return nil, false
	}
	out := make([]ident.CourseCode, 0, len(toks))
	for _, tok := range toks {
		code, err := ident.ParseCourseCode(tok)
		if err != nil {
			return nil, false
		}
		out = append(out, code)
	}
	return out, true
}

func (b bag) plans(name string) ([]ident.ProgramCode, bool) {
	toks, ok := b.tokens(name)
	if !ok {
		return nil, false
	}
	out := make([]ident.ProgramCode, 0, len(toks))
	for _, tok := range toks {
		code, err := ident.ParseProgramCode(tok)
		if err != nil {
			return nil, false
		}
		out = append(out, code)
	}
	return out, true
}

func (b bag) plan(name string) (ident.ProgramCode, bool) {
	toks, ok := b.tokens(name)
	if !ok || len(toks) != 1 {
		return ident.ProgramCode{}, false
	}
	code, err := ident.ParseProgramCode(toks[0])
	if err != nil {
		return ident.ProgramCode{}, false
	}
	return code, true
}

func (b bag) lists(name string) ([]string, bool) {
	return b.tokens(name)
}

// tokens flattens the value shapes upstream uses for list parameters:
// a delimited string, an array of strings, or an array of objects
// carrying a code/name field.
func (b bag) tokens(name string) ([]string, bool) {
	r, ok := b.get(name)
	if !ok {
		return nil, false
	}
	var out []string
	if r.IsArray() {
		bad := false
		r.ForEach(func(_, v gjson.Result) bool {
			switch {
			case v.Type == gjson.String:
				out = append(out, strings.TrimSpace(v.String()))
			case v.IsObject():
				if code := v.Get("code"); code.Exists() {
					out = append(out, strings.TrimSpace(code.String()))
				} else if n := v.Get("name"); n.Exists() {
					out = append(out, strings.TrimSpace(n.String()))
				} else {
					bad = true
					return false
				}
			default:
				bad = true
				return false
			}
			return true
		})
		if bad {
			return nil, false
		}
	} else if r.Type == gjson.String {
		out = strings.FieldsFunc(r.String(), func(c rune) bool {
			return c == ',' || c == ';' || c == ' ' || c == '\t' || c == '\n'
		})
		for i := range out {
			out[i] = strings.TrimSpace(out[i])
		}
	} else {
		return nil, false
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
