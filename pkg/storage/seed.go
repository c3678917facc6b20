package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/degreescope/degreescope/internal/utils"
)

// seedCourse overlays Course so that rows omitting "active" default to
// active, matching the upstream export convention.
type seedCourse struct {
	Course
	Active *bool `json:"active"`
}

func (sc seedCourse) course() Course {
	c := sc.Course
	c.Active = sc.Active == nil || *sc.Active
	return c
}

// courseContainer deals with the top-level JSON being either
// {"courses": [...]} or just [...].
type courseContainer struct {
	Courses []seedCourse `json:"courses"`
}

// SeedCourses loads catalog rows from a JSON file and inserts the ones
// not already present by (category, code). Rows that fail to insert
// are logged and skipped. Returns the number of inserted rows.
func (d *DB) SeedCourses(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("could not read courses JSON at %s: %w", path, err)
	}

	var container courseContainer
	if err := json.Unmarshal(data, &container); err != nil {
		if err := json.Unmarshal(data, &container.Courses); err != nil {
			return 0, fmt.Errorf("invalid course JSON in %s: %w", path, err)
		}
	}
	if len(container.Courses) == 0 {
		utils.Log.Info("No courses found in JSON; nothing to seed")
		return 0, nil
	}

	inserted := 0
	for _, sc := range container.Courses {
		c := sc.course()
		if c.Code == "" || c.Category == "" {
			utils.Log.Warnf("Skipping course row with missing category or code: %+v", c)
			continue
		}
		existing, err := d.GetCourse(ctx, c.Code)
		if err != nil {
			return inserted, err
		}
		if existing != nil && existing.Category == c.Category {
			continue
		}
		n, err := d.UpsertCourses(ctx, []Course{c})
		if err != nil {
			utils.Log.Warnf("Failed to insert course %s %s: %v", c.Category, c.Code, err)
			continue
		}
		inserted += n
	}

	utils.Log.Infof("Course seeding complete. Inserted %d new courses", inserted)
	return inserted, nil
}

type secatContainer struct {
	Secats []Secat `json:"secats"`
}

// SeedSecats loads survey results from a JSON file, either
// {"secats": [...]} or a bare array. Rows for course codes already
// holding a survey are skipped.
func (d *DB) SeedSecats(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("could not read secats JSON at %s: %w", path, err)
	}

	var container secatContainer
	if err := json.Unmarshal(data, &container); err != nil {
		if err := json.Unmarshal(data, &container.Secats); err != nil {
			return 0, fmt.Errorf("invalid secat JSON in %s: %w", path, err)
		}
	}

	inserted := 0
	for _, s := range container.Secats {
		if s.CourseCode == "" {
			utils.Log.Warnf("Skipping secat row with no course code")
			continue
		}
		existing, err := d.GetSecatByCourse(ctx, s.CourseCode)
		if err != nil {
			return inserted, err
		}
		if existing != nil {
			continue
		}
		if err := d.InsertSecat(ctx, s); err != nil {
			utils.Log.Warnf("Failed to insert secat for %s: %v", s.CourseCode, err)
			continue
		}
		inserted++
	}

	utils.Log.Infof("Secat seeding complete. Inserted %d new surveys", inserted)
	return inserted, nil
}
