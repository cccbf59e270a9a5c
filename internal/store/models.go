package store

import "time"

type User struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Student struct {
	StudentID string    `json:"student_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	CommentID string    `json:"comment_id"` // UUID
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	ReplyTo   *string   `json:"reply_to"`   // Nullable, another comment_id
	Genre     *string   `json:"genre"`      // Nullable
	StudentID *string   `json:"student_id"` // Nullable, added after first deployment
	CreatedAt time.Time `json:"created_at"`
	Lat       *float64  `json:"lat"` // Nullable, added after first deployment
	Lon       *float64  `json:"lon"` // Nullable, added after first deployment
}

// CommentWithStudent pairs a comment with the matched student's name, if any.
type CommentWithStudent struct {
	Comment
	StudentName *string `json:"student_name"`
}

type Course struct {
	CourseID   string    `json:"course_id"`
	GPXContent string    `json:"gpx_content,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CourseOfDay is the singleton pointer to today's course. At most one row
// exists in the store, keyed by a fixed id.
type CourseOfDay struct {
	CourseID string    `json:"course_id"`
	SetAt    time.Time `json:"set_at"`
}

type StatusEvent struct {
	ID        int64     `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// AssistantLog is one recorded model interaction. Rows are append-only and
// never read back through the API; the -dumplogs mode is the only reader.
type AssistantLog struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"` // "text" or "audio"
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	UserID    *string   `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
