package core

import (
	"errors"
	"fmt"

	"machitan.jp/machi-backend/internal/store"
	"machitan.jp/machi-backend/internal/utils"
)

// ErrInvalidInput marks client-side validation failures, distinct from
// store errors. Wrapped errors carry the human-readable reason.
var ErrInvalidInput = errors.New("invalid input")

const DefaultListLimit = 500

type CommentService struct {
	dbStore *store.SQLiteStore
}

func NewCommentService(db *store.SQLiteStore) *CommentService {
	return &CommentService{dbStore: db}
}

// SubmitParams carries one comment submission. ReplyTo, Genre, StudentID and
// the coordinates are optional and stored as NULL when nil.
type SubmitParams struct {
	UserID    string
	Text      string
	ReplyTo   *string
	Genre     *string
	StudentID *string
	Lat       *float64
	Lon       *float64
}

// Submit validates and persists a comment, then re-reads the stored row so
// the caller observes canonical values, including any text repair applied.
func (s *CommentService) Submit(p SubmitParams) (*store.Comment, error) {
	if p.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if p.Text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}

	comment := &store.Comment{
		UserID:    p.UserID,
		Text:      utils.RepairMojibake(p.Text),
		ReplyTo:   p.ReplyTo,
		Genre:     p.Genre,
		StudentID: p.StudentID,
		Lat:       p.Lat,
		Lon:       p.Lon,
	}
	if err := s.dbStore.CreateComment(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return s.dbStore.GetCommentByID(comment.CommentID)
}

// List returns up to limit comments, newest first. Repair runs at read time
// too: rows stored before the heuristic existed must also display correctly.
func (s *CommentService) List(limit int) ([]store.Comment, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	comments, err := s.dbStore.ListComments(limit)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].Text = utils.RepairMojibake(comments[i].Text)
	}
	return comments, nil
}

func (s *CommentService) ListWithStudentNames(limit int) ([]store.CommentWithStudent, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	comments, err := s.dbStore.ListCommentsWithStudents(limit)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].Text = utils.RepairMojibake(comments[i].Text)
		if comments[i].StudentName != nil {
			repaired := utils.RepairMojibake(*comments[i].StudentName)
			comments[i].StudentName = &repaired
		}
	}
	return comments, nil
}

func (s *CommentService) GetByID(commentID string) (*store.Comment, error) {
	comment, err := s.dbStore.GetCommentByID(commentID)
	if err != nil {
		return nil, err
	}
	comment.Text = utils.RepairMojibake(comment.Text)
	return comment, nil
}
