package core

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"machitan.jp/machi-backend/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSubmitValidation(t *testing.T) {
	svc := NewCommentService(newTestStore(t))

	if _, err := svc.Submit(SubmitParams{Text: "no user"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing user_id: err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Submit(SubmitParams{UserID: "u1"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing text: err = %v, want ErrInvalidInput", err)
	}
}

func TestSubmitAndRetrieve(t *testing.T) {
	db := newTestStore(t)
	identity := NewIdentityService(db)
	svc := NewCommentService(db)

	alice, err := identity.CreateUser("alice")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	lat, lon := 35.0, 135.0
	submitted, err := svc.Submit(SubmitParams{
		UserID: alice.UserID,
		Text:   "hello",
		Lat:    &lat,
		Lon:    &lon,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.CommentID == "" {
		t.Fatal("expected non-empty comment_id")
	}

	comments, err := svc.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(comments))
	}
	got := comments[0]
	if got.Text != "hello" {
		t.Errorf("text = %q, want hello", got.Text)
	}
	if got.Lat == nil || *got.Lat != 35.0 || got.Lon == nil || *got.Lon != 135.0 {
		t.Errorf("coordinates = %v/%v, want 35/135", got.Lat, got.Lon)
	}

	byID, err := svc.GetByID(submitted.CommentID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if byID.CommentID != submitted.CommentID || byID.Text != "hello" {
		t.Errorf("GetByID returned %+v, want the submitted record", byID)
	}
}

func TestSubmitRepairsGarbledText(t *testing.T) {
	svc := NewCommentService(newTestStore(t))

	// UTF-8 bytes of こんにちは decoded one byte per character.
	var garbled strings.Builder
	for _, by := range []byte("こんにちは") {
		garbled.WriteRune(rune(by))
	}

	submitted, err := svc.Submit(SubmitParams{UserID: "u1", Text: garbled.String()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// The returned row is re-read from the store, so the repaired form is
	// what was actually persisted.
	if submitted.Text != "こんにちは" {
		t.Errorf("stored text = %q, want repaired こんにちは", submitted.Text)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc := NewCommentService(newTestStore(t))
	if _, err := svc.GetByID("missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetByID missing: err = %v, want ErrNotFound", err)
	}
}

func TestListWithStudentNames(t *testing.T) {
	db := newTestStore(t)
	identity := NewIdentityService(db)
	svc := NewCommentService(db)

	taro, err := identity.CreateStudent("taro")
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}

	if _, err := svc.Submit(SubmitParams{UserID: "u1", Text: "with student", StudentID: &taro.StudentID}); err != nil {
		t.Fatalf("Submit with student: %v", err)
	}
	if _, err := svc.Submit(SubmitParams{UserID: "u1", Text: "without student"}); err != nil {
		t.Fatalf("Submit without student: %v", err)
	}

	rows, err := svc.ListWithStudentNames(0)
	if err != nil {
		t.Fatalf("ListWithStudentNames: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, row := range rows {
		switch row.Text {
		case "with student":
			if row.StudentName == nil || *row.StudentName != "taro" {
				t.Errorf("student name = %v, want taro", row.StudentName)
			}
		case "without student":
			if row.StudentName != nil {
				t.Errorf("student name = %q, want nil", *row.StudentName)
			}
		default:
			t.Errorf("unexpected row text %q", row.Text)
		}
	}
}
