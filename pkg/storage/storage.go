package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/degreescope/degreescope/pkg/ident"
	"github.com/degreescope/degreescope/pkg/verify"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS courses (
  id              INTEGER PRIMARY KEY,
  category        TEXT NOT NULL,
  code            TEXT NOT NULL,
  name            TEXT NOT NULL,
  description     TEXT,
  level           TEXT NOT NULL,
  num_units       INTEGER NOT NULL,
  attendance_mode TEXT,
  active          INTEGER NOT NULL CHECK (active IN (0,1)),
  semesters       TEXT,
  UNIQUE(category, code)
);
CREATE INDEX IF NOT EXISTS idx_courses_code ON courses(code);
CREATE TABLE IF NOT EXISTS secats (
  id            INTEGER PRIMARY KEY,
  course_code   TEXT NOT NULL,
  num_enrolled  INTEGER NOT NULL,
  num_responses INTEGER NOT NULL,
  response_rate REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_secats_course ON secats(course_code);
CREATE TABLE IF NOT EXISTS secat_questions (
  id                INTEGER PRIMARY KEY,
  secat_id          INTEGER NOT NULL REFERENCES secats(id) ON DELETE CASCADE,
  name              TEXT NOT NULL,
  strongly_agree    REAL NOT NULL,
  agree             REAL NOT NULL,
  middle            REAL NOT NULL,
  disagree          REAL NOT NULL,
  strongly_disagree REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_questions_secat ON secat_questions(secat_id);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// UpsertCourses inserts or refreshes catalog rows keyed by
// (category, code). Returns how many rows were newly inserted.
func (d *DB) UpsertCourses(ctx context.Context, courses []Course) (int, error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	inserted := 0
	for _, c := range courses {
		var existing int64
		err = tx.QueryRowContext(ctx, "SELECT id FROM courses WHERE category = ? AND code = ?", c.Category, c.Code).Scan(&existing)
		switch {
		case err == sql.ErrNoRows:
			_, err = tx.ExecContext(ctx, `INSERT INTO courses(category, code, name, description, level, num_units, attendance_mode, active, semesters) VALUES(?,?,?,?,?,?,?,?,?)`,
				c.Category, c.Code, c.Name, nullIfEmpty(c.Description), c.Level, c.NumUnits, nullIfEmpty(c.AttendanceMode), boolToInt(c.Active), nullIfEmpty(joinSemesters(c.Semesters)))
			if err != nil {
				return inserted, err
			}
			inserted++
		case err != nil:
			return inserted, err
		default:
			_, err = tx.ExecContext(ctx, `UPDATE courses SET name = ?, description = ?, level = ?, num_units = ?, attendance_mode = ?, active = ?, semesters = ? WHERE id = ?`,
				c.Name, nullIfEmpty(c.Description), c.Level, c.NumUnits, nullIfEmpty(c.AttendanceMode), boolToInt(c.Active), nullIfEmpty(joinSemesters(c.Semesters)), existing)
			if err != nil {
				return inserted, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return inserted, err
	}
	return inserted, nil
}

// GetCourse returns the catalog row for a course code, or nil when the
// code is unknown.
func (d *DB) GetCourse(ctx context.Context, code string) (*Course, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT id, category, code, name, description, level, num_units, attendance_mode, active, semesters FROM courses WHERE code = ?", code)
	c, err := scanCourse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCourses returns courses whose code or name contains the filter,
// or every course when the filter is empty.
func (d *DB) ListCourses(ctx context.Context, filter string) ([]Course, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if filter != "" {
		where += " AND (code LIKE ? OR name LIKE ?)"
		like := fmt.Sprintf("%%%s%%", filter)
		args = append(args, like, like)
	}
	q := "SELECT id, category, code, name, description, level, num_units, attendance_mode, active, semesters FROM courses " + where + " ORDER BY code"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// CatalogSnapshot loads every active course whose code fits the course
// grammar into an in-memory catalog for the evaluator. Rows with
// unparseable codes are skipped.
func (d *DB) CatalogSnapshot(ctx context.Context) (verify.MapCatalog, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT code, num_units, active FROM courses")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cat := verify.MapCatalog{}
	for rows.Next() {
		var (
			code   string
			units  int
			active int
		)
		if err := rows.Scan(&code, &units, &active); err != nil {
			return nil, err
		}
		if active != 1 {
			continue
		}
		cc, err := ident.ParseCourseCode(code)
		if err != nil || units < 0 {
			continue
		}
		cat[cc.String()] = verify.CourseFacts{
			Level:  cc.Level(),
			Units:  ident.Units(units),
			Active: true,
		}
	}
	return cat, rows.Err()
}

// InsertSecat stores a survey result and its questions.
func (d *DB) InsertSecat(ctx context.Context, s Secat) error {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `INSERT INTO secats(course_code, num_enrolled, num_responses, response_rate) VALUES(?,?,?,?)`,
		s.CourseCode, s.NumEnrolled, s.NumResponses, s.ResponseRate)
	if err != nil {
		return err
	}
	var secatID int64
	secatID, err = res.LastInsertId()
	if err != nil {
		return err
	}
	for _, q := range s.Questions {
		_, err = tx.ExecContext(ctx, `INSERT INTO secat_questions(secat_id, name, strongly_agree, agree, middle, disagree, strongly_disagree) VALUES(?,?,?,?,?,?,?)`,
			secatID, q.Name, q.StronglyAgree, q.Agree, q.Middle, q.Disagree, q.StronglyDisagree)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetSecatByCourse returns the most recent survey for a course code
// with its questions, or nil when none is stored.
func (d *DB) GetSecatByCourse(ctx context.Context, code string) (*Secat, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT id, course_code, num_enrolled, num_responses, response_rate FROM secats WHERE course_code = ? ORDER BY id DESC LIMIT 1", code)
	var s Secat
	err := row.Scan(&s.ID, &s.CourseCode, &s.NumEnrolled, &s.NumResponses, &s.ResponseRate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := d.sql.QueryContext(ctx, "SELECT name, strongly_agree, agree, middle, disagree, strongly_disagree FROM secat_questions WHERE secat_id = ? ORDER BY id", s.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var q SecatQuestion
		if err := rows.Scan(&q.Name, &q.StronglyAgree, &q.Agree, &q.Middle, &q.Disagree, &q.StronglyDisagree); err != nil {
			return nil, err
		}
		s.Questions = append(s.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *DB) GetStats(ctx context.Context) ([]CategoryStats, error) {
	query := `
		SELECT
			c.category,
			COUNT(DISTINCT c.id),
			COUNT(DISTINCT s.id)
		FROM
			courses AS c
		LEFT JOIN
			secats AS s ON s.course_code = c.code
		GROUP BY
			c.category
		ORDER BY
			c.category;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []CategoryStats
	for rows.Next() {
		var s CategoryStats
		if err := rows.Scan(&s.Category, &s.CourseCount, &s.SecatCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCourse(row rowScanner) (*Course, error) {
	var (
		c         Course
		desc      sql.NullString
		mode      sql.NullString
		semesters sql.NullString
		active    int
	)
	if err := row.Scan(&c.ID, &c.Category, &c.Code, &c.Name, &desc, &c.Level, &c.NumUnits, &mode, &active, &semesters); err != nil {
		return nil, err
	}
	c.Description = desc.String
	c.AttendanceMode = mode.String
	c.Active = active == 1
	if semesters.Valid && semesters.String != "" {
		c.Semesters = strings.Split(semesters.String, "|")
	}
	return &c, nil
}

func joinSemesters(semesters []string) string {
	return strings.Join(semesters, "|")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
