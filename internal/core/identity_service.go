package core

import (
	"fmt"

	"machitan.jp/machi-backend/internal/store"
)

// IdentityService creates and looks up users and students. Identities are
// immutable once created; duplicate names are permitted.
type IdentityService struct {
	dbStore *store.SQLiteStore
}

func NewIdentityService(db *store.SQLiteStore) *IdentityService {
	return &IdentityService{dbStore: db}
}

func (s *IdentityService) CreateUser(name string) (*store.User, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return s.dbStore.CreateUser(name)
}

func (s *IdentityService) GetUser(userID string) (*store.User, error) {
	return s.dbStore.GetUser(userID)
}

func (s *IdentityService) CreateStudent(name string) (*store.Student, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return s.dbStore.CreateStudent(name)
}

func (s *IdentityService) GetStudent(studentID string) (*store.Student, error) {
	return s.dbStore.GetStudent(studentID)
}

func (s *IdentityService) ListStudents() ([]store.Student, error) {
	return s.dbStore.ListStudents()
}
