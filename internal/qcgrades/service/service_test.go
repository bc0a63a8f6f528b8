package service

import (
	"context"
	"errors"
	"testing"

	"warehouse_ops_backend/internal/qcgrades/repository"
	"warehouse_ops_backend/internal/qcgrades/transport"
	"warehouse_ops_backend/platform/apperr"
)

type fakeRepo struct {
	grades     []repository.Grade
	replaceErr error
}

func (r *fakeRepo) List(context.Context) ([]repository.Grade, error) {
	return r.grades, nil
}

func (r *fakeRepo) Replace(_ context.Context, grades []repository.Grade) error {
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.grades = grades
	return nil
}

func TestLoadAndValidGrade(t *testing.T) {
	svc := New(&fakeRepo{grades: []repository.Grade{{Code: "A", Label: "Like new"}, {Code: "B", Label: "Used"}}})
	if svc.ValidGrade("A") {
		t.Fatal("expected empty snapshot before load")
	}
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !svc.ValidGrade(" a ") || !svc.ValidGrade("B") {
		t.Fatal("expected loaded grades to be valid")
	}
	if svc.ValidGrade("Z") {
		t.Fatal("expected unknown grade to be invalid")
	}
}

func TestReplaceSwapsSnapshot(t *testing.T) {
	repo := &fakeRepo{grades: []repository.Grade{{Code: "A", Label: "Like new"}}}
	svc := New(repo)
	_ = svc.Load(context.Background())

	resp, err := svc.Replace(context.Background(), transport.ReplaceGradesRequest{Grades: []transport.Grade{
		{Code: "x1", Label: "Refurbished"},
		{Code: "X2", Label: "Scrap"},
	}})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(resp.Grades) != 2 || resp.Grades[0].Code != "X1" {
		t.Fatalf("unexpected grades %+v", resp.Grades)
	}
	if svc.ValidGrade("A") || !svc.ValidGrade("x2") {
		t.Fatal("expected snapshot to follow the new list")
	}
	if repo.grades[1].Position != 2 {
		t.Fatalf("expected positions to follow request order, got %+v", repo.grades)
	}
}

func TestReplaceRejectsDuplicates(t *testing.T) {
	svc := New(&fakeRepo{})
	_, err := svc.Replace(context.Background(), transport.ReplaceGradesRequest{Grades: []transport.Grade{
		{Code: "A", Label: "one"},
		{Code: " a", Label: "two"},
	}})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReplaceFailureKeepsSnapshot(t *testing.T) {
	repo := &fakeRepo{grades: []repository.Grade{{Code: "A", Label: "Like new"}}}
	svc := New(repo)
	_ = svc.Load(context.Background())
	repo.replaceErr = errors.New("db down")

	if _, err := svc.Replace(context.Background(), transport.ReplaceGradesRequest{Grades: []transport.Grade{{Code: "B", Label: "Used"}}}); err == nil {
		t.Fatal("expected replace error")
	}
	if !svc.ValidGrade("A") || svc.ValidGrade("B") {
		t.Fatal("expected previous snapshot to remain")
	}
}
