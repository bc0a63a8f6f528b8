package service

import (
	"context"
	"strings"
	"sync"

	"warehouse_ops_backend/internal/qcgrades/repository"
	"warehouse_ops_backend/internal/qcgrades/transport"
	"warehouse_ops_backend/platform/apperr"
	"warehouse_ops_backend/platform/sanitize"
)

// Repository is the persistence contract for QC grades.
type Repository interface {
	List(ctx context.Context) ([]repository.Grade, error)
	Replace(ctx context.Context, grades []repository.Grade) error
}

// Service holds the current grade list in memory. Reads never touch the
// database; Load and Replace swap the snapshot.
type Service struct {
	repo Repository

	mu     sync.RWMutex
	grades []transport.Grade
	codes  map[string]struct{}
}

// New creates a QC grade service with an empty snapshot.
func New(repo Repository) *Service {
	return &Service{repo: repo, codes: map[string]struct{}{}}
}

// Load refreshes the snapshot from the database.
func (s *Service) Load(ctx context.Context) error {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	grades := make([]transport.Grade, 0, len(stored))
	for _, g := range stored {
		grades = append(grades, transport.Grade{Code: g.Code, Label: g.Label})
	}
	s.swap(grades)
	return nil
}

// List returns the current grade list.
func (s *Service) List() transport.GradeListResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]transport.Grade, len(s.grades))
	copy(out, s.grades)
	return transport.GradeListResponse{Grades: out}
}

// Replace validates and persists a new grade list, then swaps the snapshot.
func (s *Service) Replace(ctx context.Context, req transport.ReplaceGradesRequest) (transport.GradeListResponse, error) {
	if len(req.Grades) == 0 {
		return transport.GradeListResponse{}, apperr.Validation("at least one grade is required")
	}

	seen := make(map[string]struct{}, len(req.Grades))
	grades := make([]transport.Grade, 0, len(req.Grades))
	stored := make([]repository.Grade, 0, len(req.Grades))
	for i, g := range req.Grades {
		code := normalizeCode(g.Code)
		if code == "" {
			return transport.GradeListResponse{}, apperr.Validation("grade code is required")
		}
		if _, dup := seen[code]; dup {
			return transport.GradeListResponse{}, apperr.Validation("duplicate grade code").WithDetails(map[string]string{"code": code})
		}
		seen[code] = struct{}{}

		label := sanitize.Text(g.Label)
		grades = append(grades, transport.Grade{Code: code, Label: label})
		stored = append(stored, repository.Grade{Code: code, Label: label, Position: i + 1})
	}

	if err := s.repo.Replace(ctx, stored); err != nil {
		return transport.GradeListResponse{}, err
	}
	s.swap(grades)
	return s.List(), nil
}

// ValidGrade reports whether code is in the current list.
func (s *Service) ValidGrade(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.codes[normalizeCode(code)]
	return ok
}

func (s *Service) swap(grades []transport.Grade) {
	codes := make(map[string]struct{}, len(grades))
	for _, g := range grades {
		codes[normalizeCode(g.Code)] = struct{}{}
	}
	s.mu.Lock()
	s.grades = grades
	s.codes = codes
	s.mu.Unlock()
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
