package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/mlregistry/internal/models"
)

func TestAuditRepo_Log(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(1, models.AuditTrigger, "deployment", 4, "run-7").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewAuditRepo(db).Log(context.Background(), models.AuditEntry{
		UserID: 1, Action: models.AuditTrigger, ResourceType: "deployment", ResourceID: 4, Details: "run-7",
	})
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	cols := []string{"id", "user_id", "action", "resource_type", "resource_id", "details", "created_at"}
	mock.ExpectQuery(`SELECT id, user_id, action, resource_type, resource_id`).
		WithArgs(2, 0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(3, 1, "delete", "model", 9, "", now).
			AddRow(2, 1, "create", "model", 9, "Churn", now.Add(-time.Minute)))

	list, err := NewAuditRepo(db).List(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != 3 || list[1].Details != "Churn" {
		t.Errorf("unexpected entries: %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
