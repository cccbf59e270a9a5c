package core

import (
	"errors"
	"testing"

	"machitan.jp/machi-backend/internal/store"
)

func TestStatusValidationDivergence(t *testing.T) {
	svc := NewClassroomService(newTestStore(t))

	// The public surface rejects anything outside the closed set.
	if _, err := svc.PostStatus("lunch-break"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("PostStatus invalid: err = %v, want ErrInvalidInput", err)
	}

	// The control surface accepts the same value and it becomes current.
	if _, err := svc.PostControlStatus("lunch-break"); err != nil {
		t.Fatalf("PostControlStatus: %v", err)
	}
	latest, err := svc.LatestStatus()
	if err != nil {
		t.Fatalf("LatestStatus: %v", err)
	}
	if latest.Status != "lunch-break" {
		t.Errorf("latest status = %q, want lunch-break", latest.Status)
	}
}

func TestPostStatusAllowedSet(t *testing.T) {
	svc := NewClassroomService(newTestStore(t))

	for _, status := range []string{"debug", "tutorial", "running", "finished", "results"} {
		if _, err := svc.PostStatus(status); err != nil {
			t.Errorf("PostStatus(%q): %v", status, err)
		}
	}
	latest, err := svc.LatestStatus()
	if err != nil {
		t.Fatalf("LatestStatus: %v", err)
	}
	if latest.Status != "results" {
		t.Errorf("latest status = %q, want results", latest.Status)
	}
}

func TestCourseOfDayService(t *testing.T) {
	svc := NewClassroomService(newTestStore(t))

	// The pointer is not checked against the catalog.
	if _, err := svc.SetCourseOfDay("not-yet-uploaded"); err != nil {
		t.Fatalf("SetCourseOfDay: %v", err)
	}
	cod, err := svc.GetCourseOfDay()
	if err != nil {
		t.Fatalf("GetCourseOfDay: %v", err)
	}
	if cod.CourseID != "not-yet-uploaded" {
		t.Errorf("course of day = %q, want not-yet-uploaded", cod.CourseID)
	}
}

func TestSetCourseOfDayEmptyClearsPointer(t *testing.T) {
	svc := NewClassroomService(newTestStore(t))

	if _, err := svc.SetCourseOfDay("A"); err != nil {
		t.Fatalf("SetCourseOfDay A: %v", err)
	}

	// Setting the pointer to empty is a valid overwrite, not a validation
	// failure: it clears the shared course and reads as not set.
	if _, err := svc.SetCourseOfDay(""); err != nil {
		t.Fatalf("SetCourseOfDay empty: %v", err)
	}
	if _, err := svc.GetCourseOfDay(); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("after clearing: err = %v, want ErrNotFound", err)
	}
}

func TestSaveCourseGeneratesID(t *testing.T) {
	svc := NewClassroomService(newTestStore(t))

	if _, err := svc.SaveCourse("c1", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("SaveCourse empty content: err = %v, want ErrInvalidInput", err)
	}

	course, err := svc.SaveCourse("", "<gpx></gpx>")
	if err != nil {
		t.Fatalf("SaveCourse: %v", err)
	}
	if course.CourseID == "" {
		t.Error("expected generated course_id for empty input id")
	}
	if _, err := svc.GetCourse(course.CourseID); err != nil {
		t.Errorf("GetCourse generated id: %v", err)
	}
}

func TestGetCourseNotFound(t *testing.T) {
	svc := NewClassroomService(newTestStore(t))
	if _, err := svc.GetCourse("missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetCourse missing: err = %v, want ErrNotFound", err)
	}
}
