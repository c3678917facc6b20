package degree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/degreescope/degreescope/pkg/ident"
	"github.com/degreescope/degreescope/pkg/rules"
)

// ErrMalformedDocument is returned when no usable degree structure can
// be located at all. Anything less severe becomes a Skip record.
var ErrMalformedDocument = errors.New("malformed degree document")

// Parse ingests a raw degree document into a typed Document. It
// accepts the bare degree object, the wrapped per-year map shape
// ({"program_id": ..., "data": {"2024": {...}}}) and an array of
// either, without the caller having to know which was used.
//
// Individual malformed components, leaves and rules are skipped and
// recorded; Parse only fails when nothing parseable exists.
func Parse(data []byte) (*Document, []Skip, error) {
	root := gjson.ParseBytes(data)
	var skips []Skip

	deg, ok := locateDegree(root, &skips)
	if !ok {
		return nil, skips, fmt.Errorf("%w: no programRequirements object found", ErrMalformedDocument)
	}

	doc := &Document{
		Title: deg.Get("title").String(),
		Params: Params{
			Type: deg.Get("params.type").String(),
			Code: deg.Get("params.code").String(),
			Year: deg.Get("params.year").String(),
		},
		Status: Status{
			NoLongerOffered: deg.Get("status.noLongerOffered").Bool(),
			Domestic: Availability{
				Suspension: deg.Get("status.domestic.suspension").Bool(),
				Available:  deg.Get("status.domestic.available").Bool(),
			},
			Alternate: deg.Get("status.alternate").Raw,
		},
	}

	for _, y := range deg.Get("yearOptions").Array() {
		doc.YearOptions = append(doc.YearOptions, y.String())
	}
	if routes := deg.Get("routes"); routes.IsObject() {
		doc.Routes = make(map[string]string)
		routes.ForEach(func(k, v gjson.Result) bool {
			doc.Routes[k.String()] = v.Raw
			return true
		})
	}

	pr := deg.Get("programRequirements")
	doc.Requirements = Requirements{
		Code:         pr.Get("code").String(),
		Year:         firstNonEmpty(pr.Get("yearApplied").String(), doc.Params.Year),
		Name:         pr.Get("name").String(),
		Type:         pr.Get("type").String(),
		Subtype:      pr.Get("subtype").String(),
		OrgName:      pr.Get("orgName").String(),
		OrgCode:      pr.Get("orgCode").String(),
		State:        pr.Get("state").String(),
		UnitsMinimum: optUnits(pr.Get("unitsMinimum")),
		UnitsMaximum: optUnits(pr.Get("unitsMaximum")),
	}
	if code := doc.Requirements.Code; code != "" {
		if program, err := ident.ParseProgramCode(code); err == nil {
			doc.Requirements.Program = &program
		} else {
			skips = append(skips, Skip{
				Path:   "programRequirements.code",
				Reason: "program code does not match the grammar: " + code,
			})
		}
	}

	components := pr.Get("payload.components")
	if !components.IsArray() {
		skips = append(skips, Skip{
			Path:   "programRequirements.payload.components",
			Reason: "missing or not an array",
		})
		return doc, skips, nil
	}

	components.ForEach(func(i, raw gjson.Result) bool {
		path := fmt.Sprintf("components.%d", i.Int())
		comp, ok := parseComponent(raw, path, &skips)
		if ok {
			doc.Requirements.Components = append(doc.Requirements.Components, comp)
		}
		return true
	})

	return doc, skips, nil
}

// locateDegree resolves the wrapped-vs-flat top-level polymorphism by
// trying each shape in order.
func locateDegree(r gjson.Result, skips *[]Skip) (gjson.Result, bool) {
	if r.IsObject() && r.Get("programRequirements").Exists() {
		return r, true
	}
	if r.IsObject() && r.Get("data").Exists() {
		var found gjson.Result
		ok := false
		r.Get("data").ForEach(func(year, v gjson.Result) bool {
			if v.Type == gjson.Null {
				*skips = append(*skips, Skip{
					Path:   "data." + year.String(),
					Reason: "year entry is null",
				})
				return true
			}
			if v.Get("programRequirements").Exists() {
				found, ok = v, true
				return false
			}
			return true
		})
		return found, ok
	}
	if r.IsArray() {
		var found gjson.Result
		ok := false
		r.ForEach(func(_, v gjson.Result) bool {
			if found, ok = locateDegree(v, skips); ok {
				return false
			}
			return true
		})
		return found, ok
	}
	return gjson.Result{}, false
}

func parseComponent(r gjson.Result, path string, skips *[]Skip) (Component, bool) {
	if !r.Get("type").Exists() || !r.Get("payload").Exists() {
		*skips = append(*skips, Skip{Path: path, Reason: "component missing type or payload"})
		return Component{}, false
	}
	payload, ok := parsePayload(r.Get("payload"), path+".payload", skips)
	if !ok {
		return Component{}, false
	}
	return Component{
		InternalID:    r.Get("internalComponentIdentifier").Int(),
		IntegrationID: r.Get("componentIntegrationIdentifier").String(),
		Name:          r.Get("name").String(),
		Type:          r.Get("type").String(),
		Payload:       payload,
	}, true
}

func parsePayload(r gjson.Result, path string, skips *[]Skip) (Payload, bool) {
	if !r.IsObject() {
		*skips = append(*skips, Skip{Path: path, Reason: "payload is not an object"})
		return nil, false
	}

	rowType := r.Get("rowType")
	if !rowType.Exists() {
		rowType = r.Get("RowType")
	}
	if rowType.Exists() {
		return parseLeaf(r, strings.ToLower(rowType.String()), path, skips)
	}

	if r.Get("header").Exists() || r.Get("body").Exists() {
		node := &Node{}
		if h := r.Get("header"); h.IsObject() {
			node.Header = parseHeader(h, path+".header", skips)
		}
		r.Get("body").ForEach(func(i, child gjson.Result) bool {
			childPath := fmt.Sprintf("%s.body.%d", path, i.Int())
			if p, ok := parsePayload(child, childPath, skips); ok {
				node.Body = append(node.Body, p)
			}
			return true
		})
		return node, true
	}

	*skips = append(*skips, Skip{Path: path, Reason: "payload is neither a node nor a tagged leaf"})
	return nil, false
}

func parseLeaf(r gjson.Result, rowType, path string, skips *[]Skip) (Payload, bool) {
	switch rowType {
	case "curriculumreference":
		ref := r.Get("curriculumReference")
		if !ref.IsObject() {
			*skips = append(*skips, Skip{Path: path, Reason: "leaf missing curriculumReference"})
			return nil, false
		}
		return &CurriculumReference{
			OrderNumber: optInt64(r.Get("orderNumber")),
			Notes:       r.Get("notes").String(),
			Ref:         parseCatalogRef(ref),
		}, true

	case "equivalencegroup":
		group := r.Get("equivalenceGroup")
		if !group.IsArray() {
			*skips = append(*skips, Skip{Path: path, Reason: "leaf missing equivalenceGroup"})
			return nil, false
		}
		leaf := &EquivalenceGroup{
			OrderNumber: optInt64(r.Get("orderNumber")),
			Notes:       r.Get("notes").String(),
		}
		group.ForEach(func(i, member gjson.Result) bool {
			ref := member.Get("curriculumReference")
			if !ref.IsObject() {
				*skips = append(*skips, Skip{
					Path:   fmt.Sprintf("%s.equivalenceGroup.%d", path, i.Int()),
					Reason: "member missing curriculumReference",
				})
				return true
			}
			leaf.Members = append(leaf.Members, EquivalenceMember{
				OrderNumber: member.Get("orderNumber").Int(),
				Notes:       member.Get("notes").String(),
				Ref:         parseCatalogRef(ref),
			})
			return true
		})
		if len(leaf.Members) == 0 {
			*skips = append(*skips, Skip{Path: path, Reason: "equivalence group has no usable members"})
			return nil, false
		}
		return leaf, true

	case "wildcarditem":
		item := r.Get("wildCardItem")
		if !item.IsObject() {
			*skips = append(*skips, Skip{Path: path, Reason: "leaf missing wildCardItem"})
			return nil, false
		}
		return &WildCardItem{
			OrderNumber:      optInt64(r.Get("orderNumber")),
			Notes:            r.Get("notes").String(),
			Code:             item.Get("code").String(),
			OrgName:          item.Get("orgName").String(),
			OrgCode:          item.Get("orgCode").String(),
			IncludeChildOrgs: item.Get("includeChildOrgs").Bool(),
		}, true
	}

	*skips = append(*skips, Skip{Path: path, Reason: "unknown rowType: " + rowType})
	return nil, false
}

func parseHeader(r gjson.Result, path string, skips *[]Skip) *Header {
	hdr := &Header{
		PartUID:            r.Get("partUID").String(),
		Logic:              ParseLogic(r.Get("ruleLogic").String()),
		PartReference:      r.Get("partReference").String(),
		UnitsMin:           optUnits(r.Get("unitsMin")),
		UnitsMax:           optUnits(r.Get("unitsMax")),
		Title:              r.Get("title").String(),
		SummaryDescription: r.Get("summaryDescription").String(),
		PartType:           r.Get("partType").String(),
		Notes:              r.Get("notes").String(),
	}
	if hdr.PartReference != "" {
		if part, err := ident.ParsePartLabel(hdr.PartReference); err == nil {
			hdr.Part = part
		} else {
			*skips = append(*skips, Skip{
				Path:   path + ".partReference",
				Reason: "part reference does not match the grammar: " + hdr.PartReference,
			})
		}
	}

	r.Get("auxiliaryRules").ForEach(func(i, raw gjson.Result) bool {
		rule, ok := parseRule(raw, hdr.Part)
		if !ok {
			*skips = append(*skips, Skip{
				Path:   fmt.Sprintf("%s.auxiliaryRules.%d", path, i.Int()),
				Reason: "rule record missing code",
			})
			return true
		}
		hdr.AuxiliaryRules = append(hdr.AuxiliaryRules, rule)
		return true
	})

	if sel := r.Get("selectionRule"); sel.IsObject() {
		if rule, ok := parseRule(sel, hdr.Part); ok {
			hdr.SelectionRule = &rule
		} else {
			*skips = append(*skips, Skip{
				Path:   path + ".selectionRule",
				Reason: "rule record missing code",
			})
		}
	}

	return hdr
}

// parseRule builds a bound rule from a wire record. Parameter problems
// are absorbed by rules.Decode (they become Unknown); only a missing
// code makes the record unusable.
func parseRule(r gjson.Result, part ident.PartLabel) (rules.Rule, bool) {
	code := r.Get("code").String()
	if code == "" {
		return rules.Rule{}, false
	}
	var params []rules.Param
	r.Get("params").ForEach(func(_, p gjson.Result) bool {
		params = append(params, rules.Param{
			Name:  p.Get("name").String(),
			Type:  p.Get("type").String(),
			Value: p.Get("value"),
		})
		return true
	})
	return rules.Rule{
		Part: part,
		Kind: rules.Decode(code, r.Get("text").String(), params),
	}, true
}

func parseCatalogRef(r gjson.Result) CatalogRef {
	ref := CatalogRef{
		Code:         r.Get("code").String(),
		OrgName:      r.Get("orgName").String(),
		OrgCode:      r.Get("orgCode").String(),
		Type:         r.Get("type").String(),
		Subtype:      r.Get("subtype").String(),
		Name:         r.Get("name").String(),
		State:        r.Get("state").String(),
		UnitsMinimum: optUnits(r.Get("unitsMinimum")),
		UnitsMaximum: optUnits(r.Get("unitsMaximum")),
	}
	if ref.Code != "" {
		if course, err := ident.ParseCourseCode(ref.Code); err == nil {
			ref.Course = &course
		}
	}
	return ref
}

func optUnits(r gjson.Result) *ident.Units {
	if !r.Exists() || r.Type != gjson.Number || r.Int() < 0 {
		return nil
	}
	u := ident.Units(r.Int())
	return &u
}

func optInt64(r gjson.Result) *int64 {
	if !r.Exists() || r.Type != gjson.Number {
		return nil
	}
	n := r.Int()
	return &n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
