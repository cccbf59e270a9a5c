package core

import (
	"fmt"

	"github.com/google/uuid"

	"machitan.jp/machi-backend/internal/store"
)

// AllowedStatuses is the closed set accepted by PostStatus. The control
// surface bypasses it, see PostControlStatus.
var AllowedStatuses = map[string]bool{
	"debug":    true,
	"tutorial": true,
	"running":  true,
	"finished": true,
	"results":  true,
}

// ClassroomService owns the shared classroom state: the course catalog, the
// course-of-day pointer, and the activity status log.
type ClassroomService struct {
	dbStore *store.SQLiteStore
}

func NewClassroomService(db *store.SQLiteStore) *ClassroomService {
	return &ClassroomService{dbStore: db}
}

// SaveCourse upserts a course. An empty courseID gets a generated one.
func (s *ClassroomService) SaveCourse(courseID, gpxContent string) (*store.Course, error) {
	if gpxContent == "" {
		return nil, fmt.Errorf("%w: no course content provided", ErrInvalidInput)
	}
	if courseID == "" {
		courseID = uuid.NewString()
	}
	return s.dbStore.SaveCourse(courseID, gpxContent)
}

func (s *ClassroomService) GetCourse(courseID string) (*store.Course, error) {
	return s.dbStore.GetCourse(courseID)
}

func (s *ClassroomService) ListCourses() ([]store.Course, error) {
	return s.dbStore.ListCourses()
}

func (s *ClassroomService) DeleteCourse(courseID string) error {
	return s.dbStore.DeleteCourse(courseID)
}

// SetCourseOfDay overwrites the pointer unconditionally. The course id is
// not checked against the catalog; a teacher may point at a course that is
// uploaded later, or clear the pointer by setting it to empty.
func (s *ClassroomService) SetCourseOfDay(courseID string) (*store.CourseOfDay, error) {
	return s.dbStore.SetCourseOfDay(courseID)
}

func (s *ClassroomService) GetCourseOfDay() (*store.CourseOfDay, error) {
	return s.dbStore.GetCourseOfDay()
}

// PostStatus appends a status event, rejecting values outside
// AllowedStatuses.
func (s *ClassroomService) PostStatus(status string) (*store.StatusEvent, error) {
	if !AllowedStatuses[status] {
		return nil, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, status)
	}
	return s.dbStore.AppendStatus(status)
}

// PostControlStatus appends a status event with no validation. The control
// surface has always accepted arbitrary values and callers depend on that;
// keep it distinct from PostStatus rather than unifying the two.
func (s *ClassroomService) PostControlStatus(status string) (*store.StatusEvent, error) {
	return s.dbStore.AppendStatus(status)
}

func (s *ClassroomService) LatestStatus() (*store.StatusEvent, error) {
	return s.dbStore.LatestStatus()
}
