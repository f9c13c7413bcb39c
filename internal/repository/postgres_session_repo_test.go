package repository

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/lostfound/internal/model"
)

func TestPostgresSessionRepo_FindByID(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresSessionRepo(db)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO sessions (id, user_id, role, expires_at) VALUES
		 ('active', 'staff-1', 'admin', $1),
		 ('expired', 'student-1', 'student', $2)`,
		now.Add(time.Hour), now.Add(-time.Hour),
	)
	if err != nil {
		t.Fatalf("セッションの作成に失敗: %v", err)
	}

	session, err := repo.FindByID(ctx, "active")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if session == nil || session.UserID != "staff-1" || session.Role != model.RoleAdmin {
		t.Errorf("FindByID(active) = %+v, want staff-1 admin", session)
	}

	expired, err := repo.FindByID(ctx, "expired")
	if err != nil {
		t.Fatalf("FindByID(expired) returned error: %v", err)
	}
	if expired != nil {
		t.Errorf("expected nil for expired session, got %+v", expired)
	}
}

func TestPostgresSessionRepo_FindByID_UsesClock(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresSessionRepo(db)
	ctx := context.Background()

	expiresAt := time.Date(2030, 4, 1, 9, 0, 0, 0, time.UTC)
	if _, err := db.Exec(
		`INSERT INTO sessions (id, user_id, role, expires_at) VALUES ('clock', 'student-2', 'student', $1)`,
		expiresAt,
	); err != nil {
		t.Fatalf("セッションの作成に失敗: %v", err)
	}

	repo.now = func() time.Time { return expiresAt.Add(-time.Minute) }
	if s, err := repo.FindByID(ctx, "clock"); err != nil || s == nil {
		t.Fatalf("FindByID before expiry = (%+v, %v), want session", s, err)
	}

	repo.now = func() time.Time { return expiresAt }
	if s, err := repo.FindByID(ctx, "clock"); err != nil || s != nil {
		t.Errorf("FindByID at expiry = (%+v, %v), want (nil, nil)", s, err)
	}
}

func TestPostgresSessionRepo_FindByID_Unknown(t *testing.T) {
	repo := NewPostgresSessionRepo(openTestDB(t))

	s, err := repo.FindByID(context.Background(), "no-such-session")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if s != nil {
		t.Errorf("FindByID = %+v, want nil", s)
	}
}
