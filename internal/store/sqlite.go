package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("not found")

// courseOfDayRowID is the fixed primary key of the singleton pointer row.
const courseOfDayRowID = 1

// SeedStatus is inserted once when the status log is empty, so that
// "latest status" always has an answer after initialization.
const SeedStatus = "debug"

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.ensureSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ensureSchema brings the on-disk schema up to date on every start. All
// tables are created with IF NOT EXISTS — never drop/recreate, since the
// file holds durable classroom data across restarts. Column additions and
// status seeding are best-effort: a failed step is logged and skipped so
// startup completes with whatever schema resulted.
func (s *SQLiteStore) ensureSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS comments (
        comment_id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        text TEXT NOT NULL,
        reply_to TEXT,
        genre TEXT,
        created_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS users (
        user_id TEXT PRIMARY KEY, -- UUID
        name TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS students (
        student_id TEXT PRIMARY KEY, -- UUID
        name TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS courses (
        course_id TEXT PRIMARY KEY,
        gpx_content TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS class_course (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        course_id TEXT,
        set_at DATETIME
    );

    CREATE TABLE IF NOT EXISTS statuses (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        status TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS assistant_logs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        kind TEXT NOT NULL,
        input TEXT,
        output TEXT,
        user_id TEXT,
        created_at DATETIME NOT NULL
    );
    `
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	s.migrateCommentColumns()
	s.seedStatusLog()
	return nil
}

// migrateCommentColumns adds columns introduced after the comments table
// first shipped. Each ALTER is attempted independently: a failure (for
// example a column added by an earlier binary) must not block the rest.
func (s *SQLiteStore) migrateCommentColumns() {
	existing, err := s.tableColumns("comments")
	if err != nil {
		log.Printf("Warning: could not inspect comments columns, skipping migrations: %v", err)
		return
	}

	additions := []struct {
		name string
		ddl  string
	}{
		{"lat", "ALTER TABLE comments ADD COLUMN lat REAL"},
		{"lon", "ALTER TABLE comments ADD COLUMN lon REAL"},
		{"student_id", "ALTER TABLE comments ADD COLUMN student_id TEXT"},
	}

	for _, add := range additions {
		if existing[add.name] {
			continue
		}
		if _, err := s.db.Exec(add.ddl); err != nil {
			log.Printf("Warning: could not add comments.%s: %v", add.name, err)
			continue
		}
		log.Printf("Schema migration: added comments.%s", add.name)
	}
}

func (s *SQLiteStore) tableColumns(table string) (map[string]bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to query table_info for %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan table_info row: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// seedStatusLog inserts the bootstrap status once, on a fresh store only.
func (s *SQLiteStore) seedStatusLog() {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM statuses").Scan(&count); err != nil {
		log.Printf("Warning: could not count statuses, skipping seed: %v", err)
		return
	}
	if count > 0 {
		return
	}
	if _, err := s.db.Exec("INSERT INTO statuses (status, created_at) VALUES (?, ?)", SeedStatus, time.Now().UTC()); err != nil {
		log.Printf("Warning: could not seed status log: %v", err)
		return
	}
	log.Printf("Status log seeded with %q", SeedStatus)
}

// User methods

func (s *SQLiteStore) CreateUser(name string) (*User, error) {
	user := &User{
		UserID:    uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec("INSERT INTO users (user_id, name, created_at) VALUES (?, ?, ?)",
		user.UserID, user.Name, user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) GetUser(userID string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT user_id, name, created_at FROM users WHERE user_id = ?", userID).
		Scan(&user.UserID, &user.Name, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// Student methods

func (s *SQLiteStore) CreateStudent(name string) (*Student, error) {
	student := &Student{
		StudentID: uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec("INSERT INTO students (student_id, name, created_at) VALUES (?, ?, ?)",
		student.StudentID, student.Name, student.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert student: %w", err)
	}
	return student, nil
}

func (s *SQLiteStore) GetStudent(studentID string) (*Student, error) {
	var student Student
	err := s.db.QueryRow("SELECT student_id, name, created_at FROM students WHERE student_id = ?", studentID).
		Scan(&student.StudentID, &student.Name, &student.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query student: %w", err)
	}
	return &student, nil
}

func (s *SQLiteStore) ListStudents() ([]Student, error) {
	rows, err := s.db.Query("SELECT student_id, name, created_at FROM students ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.StudentID, &st.Name, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// Comment methods

func (s *SQLiteStore) CreateComment(c *Comment) error {
	c.CommentID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()

	stmt, err := s.db.Prepare("INSERT INTO comments (comment_id, user_id, text, reply_to, genre, student_id, created_at, lat, lon) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare comment insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(c.CommentID, c.UserID, c.Text, c.ReplyTo, c.Genre, c.StudentID, c.CreatedAt, c.Lat, c.Lon)
	if err != nil {
		return fmt.Errorf("failed to execute comment insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCommentByID(commentID string) (*Comment, error) {
	row := s.db.QueryRow("SELECT comment_id, user_id, text, reply_to, genre, student_id, created_at, lat, lon FROM comments WHERE comment_id = ?", commentID)
	c, err := scanComment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) ListComments(limit int) ([]Comment, error) {
	rows, err := s.db.Query("SELECT comment_id, user_id, text, reply_to, genre, student_id, created_at, lat, lon FROM comments ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// ListCommentsWithStudents left-joins comments against students, so comments
// without a student_id (or with one that matches nothing) come back with a
// nil student name.
func (s *SQLiteStore) ListCommentsWithStudents(limit int) ([]CommentWithStudent, error) {
	query := `
        SELECT c.comment_id, c.user_id, c.text, c.reply_to, c.genre, c.student_id, c.created_at, c.lat, c.lon, st.name
        FROM comments c
        LEFT JOIN students st ON st.student_id = c.student_id
        ORDER BY c.created_at DESC
        LIMIT ?
    `
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments with students: %w", err)
	}
	defer rows.Close()

	var results []CommentWithStudent
	for rows.Next() {
		var (
			cws      CommentWithStudent
			replyTo  sql.NullString
			genre    sql.NullString
			studID   sql.NullString
			lat, lon sql.NullFloat64
			stName   sql.NullString
		)
		err := rows.Scan(&cws.CommentID, &cws.UserID, &cws.Text, &replyTo, &genre, &studID, &cws.CreatedAt, &lat, &lon, &stName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan joined comment row: %w", err)
		}
		if replyTo.Valid {
			cws.ReplyTo = &replyTo.String
		}
		if genre.Valid {
			cws.Genre = &genre.String
		}
		if studID.Valid {
			cws.StudentID = &studID.String
		}
		if lat.Valid {
			cws.Lat = &lat.Float64
		}
		if lon.Valid {
			cws.Lon = &lon.Float64
		}
		if stName.Valid {
			cws.StudentName = &stName.String
		}
		results = append(results, cws)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) CountComments() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM comments").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*Comment, error) {
	var (
		c        Comment
		replyTo  sql.NullString
		genre    sql.NullString
		studID   sql.NullString
		lat, lon sql.NullFloat64
	)
	err := row.Scan(&c.CommentID, &c.UserID, &c.Text, &replyTo, &genre, &studID, &c.CreatedAt, &lat, &lon)
	if err != nil {
		return nil, err
	}
	if replyTo.Valid {
		c.ReplyTo = &replyTo.String
	}
	if genre.Valid {
		c.Genre = &genre.String
	}
	if studID.Valid {
		c.StudentID = &studID.String
	}
	if lat.Valid {
		c.Lat = &lat.Float64
	}
	if lon.Valid {
		c.Lon = &lon.Float64
	}
	return &c, nil
}

// Course methods

// SaveCourse stores or replaces a course keyed by its id.
func (s *SQLiteStore) SaveCourse(courseID, gpxContent string) (*Course, error) {
	course := &Course{
		CourseID:   courseID,
		GPXContent: gpxContent,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.db.Exec("REPLACE INTO courses (course_id, gpx_content, created_at) VALUES (?, ?, ?)",
		course.CourseID, course.GPXContent, course.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save course: %w", err)
	}
	return course, nil
}

func (s *SQLiteStore) GetCourse(courseID string) (*Course, error) {
	var course Course
	err := s.db.QueryRow("SELECT course_id, gpx_content, created_at FROM courses WHERE course_id = ?", courseID).
		Scan(&course.CourseID, &course.GPXContent, &course.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query course: %w", err)
	}
	return &course, nil
}

// ListCourses returns course ids and timestamps only; GPX bodies can be large
// and are fetched per course.
func (s *SQLiteStore) ListCourses() ([]Course, error) {
	rows, err := s.db.Query("SELECT course_id, created_at FROM courses ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var course Course
		if err := rows.Scan(&course.CourseID, &course.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan course row: %w", err)
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

func (s *SQLiteStore) DeleteCourse(courseID string) error {
	if _, err := s.db.Exec("DELETE FROM courses WHERE course_id = ?", courseID); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}

// Course-of-day pointer methods

// SetCourseOfDay overwrites the singleton pointer row. Last write wins.
func (s *SQLiteStore) SetCourseOfDay(courseID string) (*CourseOfDay, error) {
	cod := &CourseOfDay{CourseID: courseID, SetAt: time.Now().UTC()}
	_, err := s.db.Exec("INSERT OR REPLACE INTO class_course (id, course_id, set_at) VALUES (?, ?, ?)",
		courseOfDayRowID, cod.CourseID, cod.SetAt)
	if err != nil {
		return nil, fmt.Errorf("failed to set course of day: %w", err)
	}
	return cod, nil
}

func (s *SQLiteStore) GetCourseOfDay() (*CourseOfDay, error) {
	var (
		courseID sql.NullString
		setAt    sql.NullTime
	)
	err := s.db.QueryRow("SELECT course_id, set_at FROM class_course WHERE id = ?", courseOfDayRowID).
		Scan(&courseID, &setAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query course of day: %w", err)
	}
	if !courseID.Valid || courseID.String == "" {
		return nil, ErrNotFound
	}
	return &CourseOfDay{CourseID: courseID.String, SetAt: setAt.Time}, nil
}

// Status log methods

func (s *SQLiteStore) AppendStatus(status string) (*StatusEvent, error) {
	ev := &StatusEvent{Status: status, CreatedAt: time.Now().UTC()}
	res, err := s.db.Exec("INSERT INTO statuses (status, created_at) VALUES (?, ?)", ev.Status, ev.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append status: %w", err)
	}
	ev.ID, _ = res.LastInsertId()
	return ev, nil
}

func (s *SQLiteStore) LatestStatus() (*StatusEvent, error) {
	var ev StatusEvent
	err := s.db.QueryRow("SELECT id, status, created_at FROM statuses ORDER BY id DESC LIMIT 1").
		Scan(&ev.ID, &ev.Status, &ev.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query latest status: %w", err)
	}
	return &ev, nil
}

// Assistant log methods

func (s *SQLiteStore) AppendAssistantLog(kind, input, output string, userID *string) error {
	_, err := s.db.Exec("INSERT INTO assistant_logs (kind, input, output, user_id, created_at) VALUES (?, ?, ?, ?, ?)",
		kind, input, output, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append assistant log: %w", err)
	}
	return nil
}

// ListAssistantLogs returns the most recent interactions, newest first. Used
// only by the offline dump mode.
func (s *SQLiteStore) ListAssistantLogs(limit int) ([]AssistantLog, error) {
	rows, err := s.db.Query("SELECT id, kind, input, output, user_id, created_at FROM assistant_logs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query assistant logs: %w", err)
	}
	defer rows.Close()

	var logs []AssistantLog
	for rows.Next() {
		var (
			entry  AssistantLog
			userID sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.Kind, &entry.Input, &entry.Output, &userID, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assistant log row: %w", err)
		}
		if userID.Valid {
			entry.UserID = &userID.String
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
