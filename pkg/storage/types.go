package storage

// Course is one catalog row. Level and AttendanceMode carry the
// upstream strings ("undergraduate", "Internal", ...) unmodified.
type Course struct {
	ID             int64    `json:"-"`
	Category       string   `json:"category"`
	Code           string   `json:"code"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Level          string   `json:"level"`
	NumUnits       int      `json:"num_units"`
	AttendanceMode string   `json:"attendance_mode"`
	Active         bool     `json:"active"`
	Semesters      []string `json:"semesters"`
}

// SecatQuestion is one survey question with its agreement split, as
// percentages.
type SecatQuestion struct {
	Name             string  `json:"name"`
	StronglyAgree    float64 `json:"strongly_agree"`
	Agree            float64 `json:"agree"`
	Middle           float64 `json:"middle"`
	Disagree         float64 `json:"disagree"`
	StronglyDisagree float64 `json:"strongly_disagree"`
}

// Secat is a course evaluation survey result.
type Secat struct {
	ID           int64           `json:"-"`
	CourseCode   string          `json:"course_code"`
	NumEnrolled  int             `json:"num_enrolled"`
	NumResponses int             `json:"num_responses"`
	ResponseRate float64         `json:"response_rate"`
	Questions    []SecatQuestion `json:"questions,omitempty"`
}

// CategoryStats summarizes the stored rows for one course category.
type CategoryStats struct {
	Category    string `json:"category"`
	CourseCount int    `json:"course_count"`
	SecatCount  int    `json:"secat_count"`
}
