package verify

import (
	"testing"

	"github.com/degreescope/degreescope/pkg/degree"
	"github.com/degreescope/degreescope/pkg/ident"
	"github.com/degreescope/degreescope/pkg/rules"
)

func course(t *testing.T, s string) ident.CourseCode {
	t.Helper()
	c, err := ident.ParseCourseCode(s)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func plan(t *testing.T, s string) ident.ProgramCode {
	t.Helper()
	p, err := ident.ParseProgramCode(s)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func testCatalog() MapCatalog {
	return MapCatalog{
		"CSSE1001": {Level: 1, Units: 2, Active: true},
		"MATH1051": {Level: 1, Units: 2, Active: true},
		"STAT1201": {Level: 1, Units: 2, Active: true},
		"CSSE2310": {Level: 2, Units: 2, Active: true},
		"COMP3506": {Level: 3, Units: 2, Active: true},
		"ELEC3004": {Level: 3, Units: 2, Active: true},
	}
}

func ruleVerdict(t *testing.T, kind rules.Kind, sel Selection, program string) *Verdict {
	t.Helper()
	e := &Evaluator{Catalog: testCatalog()}
	var prog *ident.ProgramCode
	if program != "" {
		p := plan(t, program)
		prog = &p
	}
	return e.evalRule(kind, newContext(sel, prog))
}

func TestUnitLevelRules(t *testing.T) {
	sel := Selection{Courses: []ident.CourseCode{
		course(t, "CSSE2310"),
		course(t, "COMP3506"),
	}}

	// 4 qualifying units at level 2 or higher, 2 required.
	v := ruleVerdict(t, rules.AR1{N: 2, Spec: rules.LevelSpec{Level: 2, OrHigher: true}}, sel, "")
	if v.Status != Satisfied {
		t.Fatalf("AR1 or-higher: %v %v", v.Status, v.Reasons)
	}

	// Exactly level 2 only; with just the level-3 course nothing qualifies.
	only3000 := Selection{Courses: []ident.CourseCode{course(t, "COMP3506")}}
	v = ruleVerdict(t, rules.AR1{N: 2, Spec: rules.LevelSpec{Level: 2}}, only3000, "")
	if v.Status != Unsatisfied {
		t.Fatalf("AR1 exact level: %v %v", v.Status, v.Reasons)
	}
}

func TestAR2UnitCap(t *testing.T) {
	three := Selection{Courses: []ident.CourseCode{
		course(t, "CSSE1001"),
		course(t, "MATH1051"),
		course(t, "STAT1201"),
	}}
	v := ruleVerdict(t, rules.AR2{N: 4, Level: 1}, three, "")
	if v.Status != Unsatisfied {
		t.Fatalf("AR2 with 6 units at level 1: %v %v", v.Status, v.Reasons)
	}

	one := Selection{Courses: []ident.CourseCode{course(t, "CSSE1001")}}
	v = ruleVerdict(t, rules.AR2{N: 4, Level: 1}, one, "")
	if v.Status != Satisfied {
		t.Fatalf("AR2 with 2 units at level 1: %v %v", v.Status, v.Reasons)
	}
}

func TestAR3AR4Windows(t *testing.T) {
	sel := Selection{Courses: []ident.CourseCode{
		course(t, "CSSE2310"),
		course(t, "COMP3506"),
	}}

	v := ruleVerdict(t, rules.AR3{N: 4, Spec: rules.LevelSpec{Level: 2, OrHigher: true}}, sel, "")
	if v.Status != Satisfied {
		t.Fatalf("AR3 exact total: %v %v", v.Status, v.Reasons)
	}
	v = ruleVerdict(t, rules.AR3{N: 2, Spec: rules.LevelSpec{Level: 2, OrHigher: true}}, sel, "")
	if v.Status != Unsatisfied {
		t.Fatalf("AR3 over total: %v %v", v.Status, v.Reasons)
	}
	v = ruleVerdict(t, rules.AR4{N: 2, M: 6, Spec: rules.LevelSpec{Level: 2, OrHigher: true}}, sel, "")
	if v.Status != Satisfied {
		t.Fatalf("AR4 in window: %v %v", v.Status, v.Reasons)
	}
}

func TestAR5CoEnrolment(t *testing.T) {
	be := plan(t, "BE2001")
	bsc := plan(t, "BSC2001")
	kind := rules.AR5{
		PlanList1: []ident.ProgramCode{be},
		PlanList2: []ident.ProgramCode{bsc},
	}

	tests := []struct {
		name  string
		plans []ident.ProgramCode
		want  Status
	}{
		{name: "in list 1 only", plans: []ident.ProgramCode{be}, want: Unsatisfied},
		{name: "in both", plans: []ident.ProgramCode{be, bsc}, want: Satisfied},
		{name: "in neither, vacuous", plans: nil, want: Satisfied},
	}
	for _, tt := range tests {
		v := ruleVerdict(t, kind, Selection{Plans: tt.plans}, "")
		if v.Status != tt.want {
			t.Fatalf("%s: got %v, want %v (%v)", tt.name, v.Status, tt.want, v.Reasons)
		}
	}
}

func TestAR6Exclusion(t *testing.T) {
	kind := rules.AR6{
		PlanList1: []ident.ProgramCode{plan(t, "BA2001")},
		PlanList2: []ident.ProgramCode{plan(t, "BFA2001")},
	}
	v := ruleVerdict(t, kind, Selection{Plans: []ident.ProgramCode{plan(t, "BA2001"), plan(t, "BFA2001")}}, "")
	if v.Status != Unsatisfied {
		t.Fatalf("AR6 with both plans: %v", v.Status)
	}
	v = ruleVerdict(t, kind, Selection{Plans: []ident.ProgramCode{plan(t, "BA2001")}}, "")
	if v.Status != Satisfied {
		t.Fatalf("AR6 with one plan: %v", v.Status)
	}
}

func TestAR7DisciplineCap(t *testing.T) {
	sel := Selection{Courses: []ident.CourseCode{
		course(t, "CSSE1001"),
		course(t, "CSSE2310"),
		course(t, "MATH1051"),
	}}
	v := ruleVerdict(t, rules.AR7{N: 2}, sel, "")
	if v.Status != Unsatisfied {
		t.Fatalf("AR7: 4 CSSE units over a 2-unit cap: %v %v", v.Status, v.Reasons)
	}
	v = ruleVerdict(t, rules.AR7{N: 4}, sel, "")
	if v.Status != Satisfied {
		t.Fatalf("AR7 under cap: %v %v", v.Status, v.Reasons)
	}

	// A course the catalog cannot resolve makes the cap unknowable.
	withStranger := Selection{Courses: []ident.CourseCode{course(t, "XXXX9999")}}
	v = ruleVerdict(t, rules.AR7{N: 4}, withStranger, "")
	if v.Status != Indeterminate {
		t.Fatalf("AR7 with missing catalog data: %v", v.Status)
	}
}

func TestUnknownRuleIsAlwaysIndeterminate(t *testing.T) {
	kind := rules.Unknown{RuleCode: "AR99", Text: "students must attempt the honours thesis"}
	selections := []Selection{
		{},
		{Courses: []ident.CourseCode{course(t, "CSSE2310")}},
		{Plans: []ident.ProgramCode{plan(t, "BE2001")}},
	}
	for _, sel := range selections {
		v := ruleVerdict(t, kind, sel, "BE2001")
		if v.Status != Indeterminate {
			t.Fatalf("unknown rule resolved to %v", v.Status)
		}
		if len(v.Reasons) == 0 || v.Reasons[0] != "students must attempt the honours thesis" {
			t.Fatalf("raw text not surfaced: %v", v.Reasons)
		}
	}
}

func refLeaf(t *testing.T, code string) *degree.CurriculumReference {
	t.Helper()
	c := course(t, code)
	return &degree.CurriculumReference{
		Ref: degree.CatalogRef{Code: code, Course: &c},
	}
}

func TestAR9ExcludesCreditEvenWhenPresent(t *testing.T) {
	node := &degree.Node{
		Header: &degree.Header{
			Title: "Core",
			Logic: degree.Logic{Kind: degree.LogicAnd},
			AuxiliaryRules: []rules.Rule{
				{Kind: rules.AR9{CourseList: []ident.CourseCode{course(t, "CSSE2310")}}},
			},
		},
		Body: []degree.Payload{refLeaf(t, "CSSE2310")},
	}

	e := &Evaluator{Catalog: testCatalog()}
	sel := Selection{Courses: []ident.CourseCode{course(t, "CSSE2310")}}
	v := e.EvaluatePayload(node, sel, nil)
	if v.Status != Unsatisfied {
		t.Fatalf("AR9-excluded course still credited: %v", v.Status)
	}
	if v.Children[0].Status != Unsatisfied {
		t.Fatalf("leaf verdict: %v %v", v.Children[0].Status, v.Children[0].Reasons)
	}
}

func TestEquivalenceGroup(t *testing.T) {
	comp3506 := course(t, "COMP3506")
	elec3004 := course(t, "ELEC3004")
	group := &degree.EquivalenceGroup{
		Members: []degree.EquivalenceMember{
			{OrderNumber: 2, Ref: degree.CatalogRef{Code: "ELEC3004", Course: &elec3004}},
			{OrderNumber: 1, Ref: degree.CatalogRef{Code: "COMP3506", Course: &comp3506}},
		},
	}
	e := &Evaluator{Catalog: testCatalog()}

	v := e.EvaluatePayload(group, Selection{Courses: []ident.CourseCode{elec3004}}, nil)
	if v.Status != Satisfied {
		t.Fatalf("group with one member present: %v %v", v.Status, v.Reasons)
	}

	v = e.EvaluatePayload(group, Selection{Courses: []ident.CourseCode{course(t, "MATH1051")}}, nil)
	if v.Status != Unsatisfied {
		t.Fatalf("group with no member present: %v", v.Status)
	}
}

func TestWildcardFirstFit(t *testing.T) {
	// One CSSE course in the selection, claimed by the specific
	// reference; the wildcard must not reuse it even though it comes
	// first in the body.
	node := &degree.Node{
		Header: &degree.Header{Logic: degree.Logic{Kind: degree.LogicAnd}},
		Body: []degree.Payload{
			&degree.WildCardItem{Code: "CSSE"},
			refLeaf(t, "CSSE2310"),
		},
	}
	e := &Evaluator{Catalog: testCatalog()}
	sel := Selection{Courses: []ident.CourseCode{course(t, "CSSE2310")}}
	v := e.EvaluatePayload(node, sel, nil)
	if v.Status != Unsatisfied {
		t.Fatalf("wildcard double counted the course: %v", v.Status)
	}

	// With a second CSSE course both slots fill.
	sel = Selection{Courses: []ident.CourseCode{course(t, "CSSE2310"), course(t, "CSSE1001")}}
	v = e.EvaluatePayload(node, sel, nil)
	if v.Status != Satisfied {
		t.Fatalf("two courses should fill both slots: %v", v.Status)
	}
}

func TestWildcardSkipsReferencedCourseAcrossNesting(t *testing.T) {
	// The wildcard sits one level deeper than the reference that names
	// CSSE2310; the reservation still has to hold.
	inner := &degree.Node{
		Header: &degree.Header{Logic: degree.Logic{Kind: degree.LogicAnd}},
		Body:   []degree.Payload{&degree.WildCardItem{Code: "CSSE"}},
	}
	node := &degree.Node{
		Header: &degree.Header{Logic: degree.Logic{Kind: degree.LogicAnd}},
		Body:   []degree.Payload{inner, refLeaf(t, "CSSE2310")},
	}
	e := &Evaluator{Catalog: testCatalog()}

	sel := Selection{Courses: []ident.CourseCode{course(t, "CSSE2310")}}
	v := e.EvaluatePayload(node, sel, nil)
	if v.Status != Unsatisfied {
		t.Fatalf("one course filled two slots: %v", v.Status)
	}

	sel = Selection{Courses: []ident.CourseCode{course(t, "CSSE2310"), course(t, "CSSE1001")}}
	v = e.EvaluatePayload(node, sel, nil)
	if v.Status != Satisfied {
		t.Fatalf("two courses should fill both slots: %v", v.Status)
	}
}

func TestRuleEffectsOnLeaves(t *testing.T) {
	be := plan(t, "BE2001")
	bsc := plan(t, "BSC2001")
	softeng := plan(t, "SOFTENGMAJ2024")
	csse := course(t, "CSSE2310")

	tests := []struct {
		name    string
		kind    rules.Kind
		sel     Selection
		program string
		want    Status
	}{
		{
			name:    "AR10 excludes for enrolled plan",
			kind:    rules.AR10{CourseList: []ident.CourseCode{csse}, PlanList: []ident.ProgramCode{softeng}},
			sel:     Selection{Courses: []ident.CourseCode{csse}, Plans: []ident.ProgramCode{softeng}},
			program: "BE2001",
			want:    Unsatisfied,
		},
		{
			name:    "AR10 vacuous without the plan",
			kind:    rules.AR10{CourseList: []ident.CourseCode{csse}, PlanList: []ident.ProgramCode{softeng}},
			sel:     Selection{Courses: []ident.CourseCode{csse}},
			program: "BE2001",
			want:    Satisfied,
		},
		{
			name:    "AR11 excludes without the plan",
			kind:    rules.AR11{CourseList: []ident.CourseCode{csse}, PlanList: []ident.ProgramCode{softeng}},
			sel:     Selection{Courses: []ident.CourseCode{csse}},
			program: "BE2001",
			want:    Unsatisfied,
		},
		{
			name:    "AR11 vacuous with the plan",
			kind:    rules.AR11{CourseList: []ident.CourseCode{csse}, PlanList: []ident.ProgramCode{softeng}},
			sel:     Selection{Courses: []ident.CourseCode{csse}, Plans: []ident.ProgramCode{softeng}},
			program: "BE2001",
			want:    Satisfied,
		},
		{
			name:    "AR13 waives the slot for plan students",
			kind:    rules.AR13{PlanList: []ident.ProgramCode{softeng}, CourseList: []ident.CourseCode{csse}, ProgramPlanList: []ident.ProgramCode{be}},
			sel:     Selection{Plans: []ident.ProgramCode{softeng}},
			program: "BE2001",
			want:    Satisfied,
		},
		{
			name:    "AR13 vacuous without the plan",
			kind:    rules.AR13{PlanList: []ident.ProgramCode{softeng}, CourseList: []ident.CourseCode{csse}, ProgramPlanList: []ident.ProgramCode{be}},
			sel:     Selection{},
			program: "BE2001",
			want:    Unsatisfied,
		},
		{
			name:    "AR18 excludes under the other program",
			kind:    rules.AR18{CourseList: []ident.CourseCode{csse}, Program: be},
			sel:     Selection{Courses: []ident.CourseCode{csse}},
			program: "BSC2001",
			want:    Unsatisfied,
		},
		{
			name:    "AR18 credits under the named program",
			kind:    rules.AR18{CourseList: []ident.CourseCode{csse}, Program: be},
			sel:     Selection{Courses: []ident.CourseCode{csse}},
			program: "BE2001",
			want:    Satisfied,
		},
		{
			name:    "AR19 excludes for plan students under the other program",
			kind:    rules.AR19{PlanList: []ident.ProgramCode{softeng}, CourseList: []ident.CourseCode{csse}, Program: be},
			sel:     Selection{Courses: []ident.CourseCode{csse}, Plans: []ident.ProgramCode{softeng}},
			program: "BSC2001",
			want:    Unsatisfied,
		},
		{
			name:    "AR19 vacuous without the plan",
			kind:    rules.AR19{PlanList: []ident.ProgramCode{softeng}, CourseList: []ident.CourseCode{csse}, Program: be},
			sel:     Selection{Courses: []ident.CourseCode{csse}},
			program: "BSC2001",
			want:    Satisfied,
		},
		{
			name:    "AR20 excludes outside the counting plans",
			kind:    rules.AR20{Plan1: softeng, PlanList1: []ident.ProgramCode{be}, CourseList: []ident.CourseCode{csse}, PlanList2: []ident.ProgramCode{bsc}},
			sel:     Selection{Courses: []ident.CourseCode{csse}, Plans: []ident.ProgramCode{softeng, be}},
			program: "BE2001",
			want:    Unsatisfied,
		},
		{
			name:    "AR20 vacuous without the first plan",
			kind:    rules.AR20{Plan1: softeng, PlanList1: []ident.ProgramCode{be}, CourseList: []ident.CourseCode{csse}, PlanList2: []ident.ProgramCode{bsc}},
			sel:     Selection{Courses: []ident.CourseCode{csse}, Plans: []ident.ProgramCode{be}},
			program: "BE2001",
			want:    Satisfied,
		},
	}

	e := &Evaluator{Catalog: testCatalog()}
	for _, tt := range tests {
		node := &degree.Node{
			Header: &degree.Header{
				Logic:          degree.Logic{Kind: degree.LogicAnd},
				AuxiliaryRules: []rules.Rule{{Kind: tt.kind}},
			},
			Body: []degree.Payload{refLeaf(t, "CSSE2310")},
		}
		prog := plan(t, tt.program)
		v := e.EvaluatePayload(node, tt.sel, &prog)
		if v.Status != tt.want {
			t.Fatalf("%s: got %v, want %v (%v)", tt.name, v.Status, tt.want, v.Children[0].Reasons)
		}
	}
}

func TestNodeLogic(t *testing.T) {
	leafA := refLeaf(t, "CSSE2310")
	leafB := refLeaf(t, "MATH1051")
	e := &Evaluator{Catalog: testCatalog()}
	sel := Selection{Courses: []ident.CourseCode{course(t, "CSSE2310")}}

	orNode := &degree.Node{
		Header: &degree.Header{Logic: degree.Logic{Kind: degree.LogicOr}},
		Body:   []degree.Payload{leafA, leafB},
	}
	if v := e.EvaluatePayload(orNode, sel, nil); v.Status != Satisfied {
		t.Fatalf("OR node: %v", v.Status)
	}

	andNode := &degree.Node{
		Header: &degree.Header{Logic: degree.Logic{Kind: degree.LogicAnd}},
		Body:   []degree.Payload{leafA, leafB},
	}
	if v := e.EvaluatePayload(andNode, sel, nil); v.Status != Unsatisfied {
		t.Fatalf("AND node: %v", v.Status)
	}

	unknownNode := &degree.Node{
		Header: &degree.Header{Logic: degree.Logic{Kind: degree.LogicUnknown, Raw: "XOR"}},
		Body:   []degree.Payload{leafA, leafB},
	}
	if v := e.EvaluatePayload(unknownNode, sel, nil); v.Status != Indeterminate {
		t.Fatalf("unknown logic should be indeterminate: %v", v.Status)
	}
}

func TestNodeUnitBounds(t *testing.T) {
	min := ident.Units(4)
	node := &degree.Node{
		Header: &degree.Header{
			Logic:    degree.Logic{Kind: degree.LogicOr},
			UnitsMin: &min,
		},
		Body: []degree.Payload{refLeaf(t, "CSSE2310"), refLeaf(t, "MATH1051")},
	}
	e := &Evaluator{Catalog: testCatalog()}

	// OR logic holds with one course, but only 2 of the 4 required
	// units are credited.
	sel := Selection{Courses: []ident.CourseCode{course(t, "CSSE2310")}}
	v := e.EvaluatePayload(node, sel, nil)
	if v.Status != Unsatisfied {
		t.Fatalf("units below minimum: %v %v", v.Status, v.Reasons)
	}

	sel = Selection{Courses: []ident.CourseCode{course(t, "CSSE2310"), course(t, "MATH1051")}}
	v = e.EvaluatePayload(node, sel, nil)
	if v.Status != Satisfied {
		t.Fatalf("units at minimum: %v %v", v.Status, v.Reasons)
	}
}

func TestAR16Substitution(t *testing.T) {
	be := plan(t, "BE2001")
	softeng := plan(t, "SOFTENGMAJ2024")
	node := &degree.Node{
		Header: &degree.Header{
			Logic: degree.Logic{Kind: degree.LogicAnd},
			AuxiliaryRules: []rules.Rule{
				{Kind: rules.AR16{
					PlanList:        []ident.ProgramCode{softeng},
					CourseList1:     []ident.CourseCode{course(t, "CSSE2310")},
					CourseList2:     []ident.CourseCode{course(t, "COMP3506")},
					ProgramPlanList: []ident.ProgramCode{be},
				}},
			},
		},
		Body: []degree.Payload{refLeaf(t, "CSSE2310")},
	}

	e := &Evaluator{Catalog: testCatalog()}
	sel := Selection{
		Courses: []ident.CourseCode{course(t, "COMP3506")},
		Plans:   []ident.ProgramCode{softeng},
	}
	v := e.EvaluatePayload(node, sel, &be)
	if v.Status != Satisfied {
		t.Fatalf("substitute should satisfy the slot: %v %v", v.Status, v.Children[0].Reasons)
	}

	// Without the plan enrolment the substitution does not apply.
	sel.Plans = nil
	v = e.EvaluatePayload(node, sel, &be)
	if v.Status != Unsatisfied {
		t.Fatalf("substitution applied without plan gate: %v", v.Status)
	}
}

func TestEvaluateWholeProgram(t *testing.T) {
	be := plan(t, "BE2001")
	min := ident.Units(2)
	req := &degree.Requirements{
		Code:         "BE2001",
		Program:      &be,
		Name:         "Bachelor of Engineering (Honours)",
		UnitsMinimum: &min,
		Components: []degree.Component{
			{
				Name: "Core",
				Payload: &degree.Node{
					Header: &degree.Header{Title: "Core", Logic: degree.Logic{Kind: degree.LogicAnd}},
					Body:   []degree.Payload{refLeaf(t, "CSSE2310")},
				},
			},
		},
	}

	sel := Selection{Courses: []ident.CourseCode{course(t, "CSSE2310")}}
	v := Evaluate(req, sel, testCatalog())
	if v.Status != Satisfied {
		t.Fatalf("program should be satisfied: %v %v", v.Status, v.Reasons)
	}
	if len(v.Children) != 1 || v.Children[0].Title != "Core" {
		t.Fatalf("verdict does not mirror components: %+v", v.Children)
	}

	v = Evaluate(req, Selection{}, testCatalog())
	if v.Status != Unsatisfied {
		t.Fatalf("empty selection should fail: %v", v.Status)
	}
}
