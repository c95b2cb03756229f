package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/luckyrocket0125/studycare-be/internal/model"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505"}
	if !IsUniqueViolation(dup) {
		t.Fatal("23505 should be a unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("23503 is not a unique violation")
	}
	if IsUniqueViolation(errors.New("plain error")) {
		t.Fatal("plain errors are not unique violations")
	}
	if IsUniqueViolation(nil) {
		t.Fatal("nil is not a unique violation")
	}
}

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("set TEST_DATABASE_URL to run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return NewStore(pool)
}

func TestProfileRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := model.Profile{
		ID:       uuid.NewString(),
		Email:    uuid.NewString() + "@example.com",
		FullName: "Round Trip",
		Role:     model.RoleStudent,
		Language: "en",
	}
	created, err := s.InsertProfile(ctx, p)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	byID, err := s.GetProfileByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Email != p.Email {
		t.Fatalf("email = %q, want %q", byID.Email, p.Email)
	}

	byEmail, err := s.GetProfileByEmail(ctx, p.Email)
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("id = %q, want %q", byEmail.ID, created.ID)
	}

	if _, err := s.InsertProfile(ctx, p); !IsUniqueViolation(err) {
		t.Fatalf("second insert err = %v, want unique violation", err)
	}
}

func TestCaregiverLinkLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	caregiver, err := s.InsertProfile(ctx, model.Profile{
		ID:    uuid.NewString(),
		Email: uuid.NewString() + "@example.com",
		Role:  model.RoleCaregiver,
	})
	if err != nil {
		t.Fatalf("insert caregiver: %v", err)
	}
	child, err := s.InsertProfile(ctx, model.Profile{
		ID:    uuid.NewString(),
		Email: uuid.NewString() + "@example.com",
		Role:  model.RoleStudent,
	})
	if err != nil {
		t.Fatalf("insert child: %v", err)
	}

	if err := s.InsertCaregiverLink(ctx, caregiver.ID, child.ID); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := s.InsertCaregiverLink(ctx, caregiver.ID, child.ID); !IsUniqueViolation(err) {
		t.Fatalf("second link err = %v, want unique violation", err)
	}

	linked, err := s.CaregiverLinkExists(ctx, caregiver.ID, child.ID)
	if err != nil || !linked {
		t.Fatalf("link exists = %v, err = %v", linked, err)
	}

	children, err := s.ListLinkedChildren(ctx, caregiver.ID)
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if len(children) != 1 || children[0].ID != child.ID {
		t.Fatalf("children = %+v", children)
	}

	if err := s.DeleteCaregiverLink(ctx, caregiver.ID, child.ID); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if err := s.DeleteCaregiverLink(ctx, caregiver.ID, child.ID); err != nil {
		t.Fatalf("second unlink should be a no-op, got %v", err)
	}
}

func TestSessionOrdering(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	owner, err := s.InsertProfile(ctx, model.Profile{
		ID:    uuid.NewString(),
		Email: uuid.NewString() + "@example.com",
		Role:  model.RoleStudent,
	})
	if err != nil {
		t.Fatalf("insert owner: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := s.InsertSession(ctx, model.StudySession{
			ID:          uuid.NewString(),
			UserID:      owner.ID,
			SessionType: model.SessionTypeChat,
			Title:       "Session",
		}); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}

	recent, err := s.RecentSessions(ctx, owner.ID, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent length = %d, want 2", len(recent))
	}
	if recent[0].CreatedAt.Before(recent[1].CreatedAt) {
		t.Fatal("recent sessions should be newest first")
	}
}

func TestGetProfileMissingRow(t *testing.T) {
	s := testStore(t)

	_, err := s.GetProfileByID(context.Background(), uuid.NewString())
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("err = %v, want pgx.ErrNoRows", err)
	}
}
