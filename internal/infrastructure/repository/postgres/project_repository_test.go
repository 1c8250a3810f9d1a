package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

func TestProjectRepositoryGetByGUIDUsesGuidPredicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewProjectRepository(db)
	rows := sqlmock.NewRows([]string{
		"id", "guid", "group_id", "title", "description", "status", "is_active", "thread_id",
		"source_language", "target_language", "source_currency", "target_currency", "exchange_rate",
		"created_at", "updated_at",
	}).AddRow(
		int64(7), "3f1c2a54-9a1e-4a42-b6d4-0c5f0e1de111", int64(1), "Stockholm shipment", "", "active", true, "thread-7",
		"en", "pl", "USD", "PLN", 4.2, time.Now(), time.Now(),
	)

	mock.ExpectQuery("FROM projects WHERE guid =").
		WithArgs("3f1c2a54-9a1e-4a42-b6d4-0c5f0e1de111").
		WillReturnRows(rows)

	project, err := repo.GetByKey(context.Background(), domain.KeyFromGUID("3f1c2a54-9a1e-4a42-b6d4-0c5f0e1de111"))
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if project.ID != 7 || project.ThreadID != "thread-7" {
		t.Fatalf("unexpected project %+v", project)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestProjectRepositoryGetByKeyNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewProjectRepository(db)
	mock.ExpectQuery("FROM projects WHERE id =").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetByKey(context.Background(), domain.KeyFromID(99))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestProjectRepositorySetThreadIDBindsOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewProjectRepository(db)
	mock.ExpectExec("UPDATE projects").
		WithArgs(int64(7), "thread-7", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetThreadID(context.Background(), 7, "thread-7"); err != nil {
		t.Fatalf("SetThreadID() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestProjectRepositorySetThreadIDConflictWhenAlreadyBound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewProjectRepository(db)
	mock.ExpectExec("UPDATE projects").
		WithArgs(int64(7), "thread-other", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.SetThreadID(context.Background(), 7, "thread-other")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
