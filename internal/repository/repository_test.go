package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type record struct {
	ID     uuid.UUID
	Email  string
	Status string
}

func (r record) PrimaryKey() uuid.UUID { return r.ID }

func newMockRepo(t *testing.T) (*Repository[record], sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return New[record](gdb), mock
}

func TestFind_ExcludesSoftDeleted(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "records" WHERE "records"\."email" = \$1 AND status <> \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status"}).
			AddRow(id.String(), "a@b.c", "active"))

	rows, err := repo.Find(context.Background(), Filter{"email": "a@b.c"}, ListOptions{})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != id {
		t.Errorf("unexpected rows: %+v", rows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFindDeleted_SelectsOnlyDeleted(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT \* FROM "records" WHERE "records"\."email" = \$1 AND status = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status"}).
			AddRow(uuid.New().String(), "a@b.c", "deleted"))

	rows, err := repo.FindDeleted(context.Background(), Filter{"email": "a@b.c"}, "")
	if err != nil {
		t.Fatalf("FindDeleted: %v", err)
	}
	if len(rows) != 1 || rows[0].Status != "deleted" {
		t.Errorf("unexpected rows: %+v", rows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFindOne_ExplicitStatusBypassesGuard(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT \* FROM "records" WHERE "records"\."status" = \$1 ORDER BY`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status"}).
			AddRow(uuid.New().String(), "a@b.c", "archived"))

	row, err := repo.FindOne(context.Background(), Filter{"status": "archived"})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if row.Status != "archived" {
		t.Errorf("unexpected row: %+v", row)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// Id lookups see every row, deleted included: the WHERE clause carries only
// the id condition.
func TestFindByID_NoGuard(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "records" WHERE id = \$1 ORDER BY "records"\."id" LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status"}).
			AddRow(id.String(), "a@b.c", "deleted"))

	row, err := repo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if row.ID != id {
		t.Errorf("unexpected row: %+v", row)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateMany_ReportsCounts(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "records" SET`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	res, err := repo.UpdateMany(context.Background(),
		Filter{"email": "a@b.c"}, map[string]any{"status": "archived"})
	if err != nil {
		t.Fatalf("UpdateMany: %v", err)
	}
	if !res.Acknowledged || res.MatchedCount != 3 || res.ModifiedCount != 3 {
		t.Errorf("unexpected result: %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// UpdateOne must match and update in one statement: an UPDATE over an id
// subquery carrying the soft-delete guard, returning the updated row.
func TestUpdateOne_SingleStatement(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE "records" SET "status"=\$1 WHERE id = \(SELECT "id" FROM "records" WHERE "records"\."email" = \$2 AND status <> \$3.*\) RETURNING`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status"}).
			AddRow(id.String(), "a@b.c", "archived"))
	mock.ExpectCommit()

	row, err := repo.UpdateOne(context.Background(),
		Filter{"email": "a@b.c"}, map[string]any{"status": "archived"})
	if err != nil {
		t.Fatalf("UpdateOne: %v", err)
	}
	if row.ID != id || row.Status != "archived" {
		t.Errorf("unexpected row: %+v", row)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateOne_NoMatch(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE "records" SET "status"=\$1 WHERE id = \(SELECT "id" FROM "records"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status"}))
	mock.ExpectCommit()

	_, err := repo.UpdateOne(context.Background(),
		Filter{"email": "missing@b.c"}, map[string]any{"status": "archived"})
	if err != gorm.ErrRecordNotFound {
		t.Errorf("expected gorm.ErrRecordNotFound, got %v", err)
	}
}

func TestDeleteMany_IgnoresGuard(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "records" WHERE "records"\."status" = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	res, err := repo.DeleteMany(context.Background(), Filter{"status": "deleted"})
	if err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if res.DeletedCount != 2 {
		t.Errorf("expected 2 deletions, got %d", res.DeletedCount)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
