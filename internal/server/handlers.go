package server

import (
	"encoding/json"
	"net/http"

	"github.com/degreescope/degreescope/pkg/degree"
	"github.com/degreescope/degreescope/pkg/ident"
	"github.com/degreescope/degreescope/pkg/verify"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(stats)
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.DB.ListCourses(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(courses)
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := s.DB.GetCourse(r.Context(), r.PathValue("code"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if course == nil {
		http.Error(w, "course not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(course)
}

func (s *Server) handleGetSecat(w http.ResponseWriter, r *http.Request) {
	secat, err := s.DB.GetSecatByCourse(r.Context(), r.PathValue("code"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if secat == nil {
		http.Error(w, "no survey for course", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(secat)
}

type EvaluateRequest struct {
	Document  json.RawMessage `json:"document"`
	Selection struct {
		Courses []string `json:"courses"`
		Plans   []string `json:"plans"`
	} `json:"selection"`
}

type EvaluateResponse struct {
	Verdict *Verdict      `json:"verdict"`
	Skips   []degree.Skip `json:"skips,omitempty"`
}

// Verdict aliases the evaluator's verdict for the response shape.
type Verdict = verify.Verdict

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Document) == 0 {
		http.Error(w, "missing document", http.StatusBadRequest)
		return
	}

	doc, skips, err := degree.Parse([]byte(req.Document))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var sel verify.Selection
	for _, raw := range req.Selection.Courses {
		code, err := ident.ParseCourseCode(raw)
		if err != nil {
			http.Error(w, "invalid course code: "+raw, http.StatusBadRequest)
			return
		}
		sel.Courses = append(sel.Courses, code)
	}
	for _, raw := range req.Selection.Plans {
		code, err := ident.ParseProgramCode(raw)
		if err != nil {
			http.Error(w, "invalid plan code: "+raw, http.StatusBadRequest)
			return
		}
		sel.Plans = append(sel.Plans, code)
	}

	catalog, err := s.DB.CatalogSnapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	verdict := verify.Evaluate(&doc.Requirements, sel, catalog)
	json.NewEncoder(w).Encode(EvaluateResponse{Verdict: verdict, Skips: skips})
}
