package workspaces

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/webdeskhq/webdesk/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+workspaces\b.*RETURNING\s+created_at`).
		WithArgs("w1", "u1", "Projects").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	w := &models.Workspace{ID: "w1", OwnerID: "u1", Name: "Projects"}
	if err := repo.Create(context.Background(), w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.CreatedAt.Equal(now) {
		t.Fatalf("created_at not populated")
	}
}

func TestListByOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+workspaces\s+WHERE\s+owner_id\s*=\s*\$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "created_at"}).
			AddRow("w1", "u1", "Main", now).
			AddRow("w2", "u1", "Side", now))

	list, err := repo.ListByOwner(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Main" {
		t.Fatalf("unexpected result: %+v", list)
	}
}

func TestCountByOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+workspaces\s+WHERE\s+owner_id\s*=\s*\$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))

	count, err := repo.CountByOwner(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("want 1, got %d", count)
	}
}
