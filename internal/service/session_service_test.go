package service

import (
	"errors"
	"testing"
	"time"

	"creator-marketplace-service/internal/domain"
	"creator-marketplace-service/internal/repository"
)

func TestSessionServiceListActiveSessions(t *testing.T) {
	now := time.Now().UTC()
	repo := &stubSessionRepository{
		listActiveByUserFn: func(userID uint, _ time.Time) ([]domain.Session, error) {
			if userID != 42 {
				t.Fatalf("unexpected userID: %d", userID)
			}
			return []domain.Session{
				{ID: 10, Browser: "Chrome", OS: "Windows", DeviceType: "desktop", IP: "1.1.1.1", LastActivity: now, ExpiresAt: now.Add(time.Hour)},
				{ID: 11, Browser: "Safari", OS: "iOS", DeviceType: "mobile", IP: "2.2.2.2", LastActivity: now.Add(-time.Minute), ExpiresAt: now.Add(time.Hour)},
			}, nil
		},
	}
	svc := NewSessionService(repo)

	views, err := svc.ListActiveSessions(42, 11)
	if err != nil {
		t.Fatalf("ListActiveSessions: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(views))
	}
	if views[0].IsCurrent {
		t.Fatal("expected first session not current")
	}
	if !views[1].IsCurrent {
		t.Fatal("expected second session current")
	}
	if views[1].Browser != "Safari" || views[1].DeviceType != "mobile" {
		t.Fatalf("device fields not mapped: %+v", views[1])
	}
}

func TestSessionServiceListActiveSessionsRepoError(t *testing.T) {
	expected := errors.New("db unavailable")
	repo := &stubSessionRepository{
		listActiveByUserFn: func(_ uint, _ time.Time) ([]domain.Session, error) { return nil, expected },
	}
	svc := NewSessionService(repo)

	if _, err := svc.ListActiveSessions(1, 0); !errors.Is(err, expected) {
		t.Fatalf("expected %v, got %v", expected, err)
	}
}

func TestSessionServiceRevokeSession(t *testing.T) {
	t.Run("unknown session", func(t *testing.T) {
		repo := &stubSessionRepository{
			findByIDFn: func(_ uint) (*domain.Session, error) { return nil, repository.ErrSessionNotFound },
		}
		svc := NewSessionService(repo)

		_, err := svc.RevokeSession(1, 2)
		if !IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("cross-user revocation is forbidden", func(t *testing.T) {
		revokeCalled := false
		repo := &stubSessionRepository{
			findByIDFn: func(_ uint) (*domain.Session, error) {
				return &domain.Session{ID: 2, UserID: 99}, nil
			},
			revokeByIDForUserFn: func(_, _ uint, _ string, _ time.Time) (bool, error) {
				revokeCalled = true
				return true, nil
			},
		}
		svc := NewSessionService(repo)

		_, err := svc.RevokeSession(1, 2)
		if !errors.Is(err, ErrSessionForbidden) {
			t.Fatalf("expected ErrSessionForbidden, got %v", err)
		}
		if revokeCalled {
			t.Fatal("forbidden revocation must leave the target untouched")
		}
	})

	t.Run("already revoked", func(t *testing.T) {
		repo := &stubSessionRepository{
			findByIDFn: func(_ uint) (*domain.Session, error) {
				return &domain.Session{ID: 2, UserID: 1}, nil
			},
			revokeByIDForUserFn: func(_, _ uint, reason string, _ time.Time) (bool, error) {
				if reason != domain.RevokeReasonUserRevoked {
					t.Fatalf("unexpected reason %q", reason)
				}
				return false, nil
			},
		}
		svc := NewSessionService(repo)

		status, err := svc.RevokeSession(1, 2)
		if err != nil {
			t.Fatalf("RevokeSession: %v", err)
		}
		if status != "already_revoked" {
			t.Fatalf("expected already_revoked, got %q", status)
		}
	})

	t.Run("revoked", func(t *testing.T) {
		repo := &stubSessionRepository{
			findByIDFn: func(_ uint) (*domain.Session, error) {
				return &domain.Session{ID: 2, UserID: 1}, nil
			},
			revokeByIDForUserFn: func(_, _ uint, _ string, _ time.Time) (bool, error) { return true, nil },
		}
		svc := NewSessionService(repo)

		status, err := svc.RevokeSession(1, 2)
		if err != nil {
			t.Fatalf("RevokeSession: %v", err)
		}
		if status != "revoked" {
			t.Fatalf("expected revoked, got %q", status)
		}
	})
}

func TestSessionSweeperSweepOnce(t *testing.T) {
	swept := int64(0)
	repo := &stubSessionRepository{
		sweepExpiredFn: func(_ time.Time) (int64, error) { swept = 5; return 5, nil },
	}
	sweeper := NewSessionSweeper(repo, time.Hour, newTestLogger())

	sweeper.SweepOnce(t.Context())
	if swept != 5 {
		t.Fatalf("expected sweep to run, got %d", swept)
	}
}
