package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/cache"
	"github.com/luckyrocket0125/studycare-be/internal/identity"
	"github.com/luckyrocket0125/studycare-be/internal/model"
	"github.com/luckyrocket0125/studycare-be/internal/store"
)

const (
	timelinePerSource = 5
	timelineLimit     = 10
)

type CaregiverStore interface {
	ProfileStore
	CaregiverLinkExists(ctx context.Context, caregiverID, childID string) (bool, error)
	InsertCaregiverLink(ctx context.Context, caregiverID, childID string) error
	LinkCaregiverChildPrivileged(ctx context.Context, caregiverID, childID string) error
	DeleteCaregiverLink(ctx context.Context, caregiverID, childID string) error
	ListLinkedChildren(ctx context.Context, caregiverID string) ([]model.Profile, error)
	CountClassesForStudent(ctx context.Context, studentID string) (int, error)
	CountNotesForUser(ctx context.Context, userID string) (int, error)
	CountSessionsForUser(ctx context.Context, userID string) (int, error)
	RecentNotes(ctx context.Context, userID string, limit int) ([]model.Note, error)
	RecentSessions(ctx context.Context, userID string, limit int) ([]model.StudySession, error)
}

// Directory is the auth provider's user listing, consulted when a child has
// an identity but no profile row yet.
type Directory interface {
	ListUsersByEmail(ctx context.Context, email string) ([]identity.User, error)
}

type Caregiver struct {
	store     CaregiverStore
	directory Directory
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func NewCaregiver(store CaregiverStore, directory Directory, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *Caregiver {
	return &Caregiver{
		store:     store,
		directory: directory,
		cache:     c,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

type ChildSummary struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type ActivityEntry struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

type ActivityReport struct {
	ChildID           string          `json:"child_id"`
	ClassesCount      int             `json:"classes_count"`
	NotesCount        int             `json:"notes_count"`
	ChatSessionsCount int             `json:"chat_sessions_count"`
	LastActivity      *time.Time      `json:"last_activity,omitempty"`
	RecentActivity    []ActivityEntry `json:"recent_activity"`
}

// LinkChild resolves the child's profile from an email and creates the
// caregiver-child relationship.
func (s *Caregiver) LinkChild(ctx context.Context, caregiverID, childEmail string) (ChildSummary, error) {
	child, err := s.resolveChild(ctx, childEmail)
	if err != nil {
		return ChildSummary{}, err
	}
	if child.ID == caregiverID {
		return ChildSummary{}, apperr.Validation("invalid_child", "cannot link your own account")
	}

	linked, err := s.store.CaregiverLinkExists(ctx, caregiverID, child.ID)
	if err != nil {
		return ChildSummary{}, err
	}
	if linked {
		return ChildSummary{}, apperr.Conflict("already_linked", "this child is already linked")
	}

	// The exists check above can race with a concurrent link for the same
	// pair; a duplicate key here means the other request won.
	if err := s.store.InsertCaregiverLink(ctx, caregiverID, child.ID); err != nil {
		if store.IsUniqueViolation(err) {
			return ChildSummary{}, apperr.Conflict("already_linked", "this child is already linked")
		}
		s.logger.Warn("caregiver link insert failed, retrying via privileged procedure",
			zap.String("caregiver_id", caregiverID),
			zap.String("child_id", child.ID),
			zap.Error(err))
		if err := s.store.LinkCaregiverChildPrivileged(ctx, caregiverID, child.ID); err != nil {
			if store.IsUniqueViolation(err) {
				return ChildSummary{}, apperr.Conflict("already_linked", "this child is already linked")
			}
			return ChildSummary{}, err
		}
	}

	return ChildSummary{ID: child.ID, FullName: child.FullName, Email: child.Email}, nil
}

// resolveChild locates or provisions the student profile for an email.
// Profiles are checked first; the auth provider's user list is the fallback
// for students who signed up but never completed a profile.
func (s *Caregiver) resolveChild(ctx context.Context, email string) (model.Profile, error) {
	email = normalizeEmail(email)
	if email == "" {
		return model.Profile{}, apperr.Validation("missing_email", "child email is required")
	}

	profile, err := s.store.GetProfileByEmail(ctx, email)
	if err == nil {
		return requireStudent(profile)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, err
	}

	users, err := s.directory.ListUsersByEmail(ctx, email)
	if err != nil {
		return model.Profile{}, apperr.Upstream("auth_provider_error", "could not look up the child account")
	}
	if len(users) == 0 {
		return model.Profile{}, apperr.NotFound("child_not_found", "no account exists for this email")
	}

	profile, err = provisionProfile(ctx, s.store, users[0])
	if err != nil {
		return model.Profile{}, err
	}
	return requireStudent(profile)
}

func requireStudent(profile model.Profile) (model.Profile, error) {
	if profile.Role != model.RoleStudent {
		return model.Profile{}, apperr.Validation("not_a_student", "the linked account is not a student")
	}
	return profile, nil
}

func (s *Caregiver) ListChildren(ctx context.Context, caregiverID string) ([]ChildSummary, error) {
	children, err := s.store.ListLinkedChildren(ctx, caregiverID)
	if err != nil {
		return nil, err
	}
	summaries := make([]ChildSummary, 0, len(children))
	for _, child := range children {
		summaries = append(summaries, ChildSummary{ID: child.ID, FullName: child.FullName, Email: child.Email})
	}
	return summaries, nil
}

// UnlinkChild removes the relationship. Deleting a nonexistent link is not
// reported as an error.
func (s *Caregiver) UnlinkChild(ctx context.Context, caregiverID, childID string) error {
	if err := s.store.DeleteCaregiverLink(ctx, caregiverID, childID); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, activityCacheKey(caregiverID, childID))
	}
	return nil
}

// ChildActivity assembles the activity report for a linked child.
func (s *Caregiver) ChildActivity(ctx context.Context, caregiverID, childID string) (ActivityReport, error) {
	linked, err := s.store.CaregiverLinkExists(ctx, caregiverID, childID)
	if err != nil {
		return ActivityReport{}, err
	}
	if !linked {
		return ActivityReport{}, apperr.Forbidden("not_linked", "this child is not linked to your account")
	}

	cacheKey := activityCacheKey(caregiverID, childID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var report ActivityReport
			if err := json.Unmarshal(raw, &report); err == nil {
				return report, nil
			}
		}
	}

	report := ActivityReport{ChildID: childID, RecentActivity: []ActivityEntry{}}
	if report.ClassesCount, err = s.store.CountClassesForStudent(ctx, childID); err != nil {
		return ActivityReport{}, err
	}
	if report.NotesCount, err = s.store.CountNotesForUser(ctx, childID); err != nil {
		return ActivityReport{}, err
	}
	if report.ChatSessionsCount, err = s.store.CountSessionsForUser(ctx, childID); err != nil {
		return ActivityReport{}, err
	}

	notes, err := s.store.RecentNotes(ctx, childID, timelinePerSource)
	if err != nil {
		return ActivityReport{}, err
	}
	sessions, err := s.store.RecentSessions(ctx, childID, timelinePerSource)
	if err != nil {
		return ActivityReport{}, err
	}

	report.RecentActivity = mergeTimeline(notes, sessions)
	if len(report.RecentActivity) > 0 {
		last := report.RecentActivity[0].Timestamp
		report.LastActivity = &last
	}

	if s.cache != nil {
		if raw, err := json.Marshal(report); err == nil {
			_ = s.cache.Set(ctx, cacheKey, raw, s.cacheTTL)
		}
	}
	return report, nil
}

// mergeTimeline merges the bounded per-source candidate sets into one
// newest-first feed. Each source contributes at most its 5 most recent
// entries, so a burst of more than 5 items in one source can displace older
// items from the other; the report is a recent-activity sample, not a strict
// top-k.
func mergeTimeline(notes []model.Note, sessions []model.StudySession) []ActivityEntry {
	entries := make([]ActivityEntry, 0, len(notes)+len(sessions))
	for _, note := range notes {
		entries = append(entries, ActivityEntry{
			Type:        "note",
			Description: "Created note: " + note.Title,
			Timestamp:   note.CreatedAt,
		})
	}
	for _, sess := range sessions {
		entries = append(entries, ActivityEntry{
			Type:        "session",
			Description: "Started " + sess.SessionType + " session: " + sess.Title,
			Timestamp:   sess.CreatedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if len(entries) > timelineLimit {
		entries = entries[:timelineLimit]
	}
	return entries
}

func activityCacheKey(caregiverID, childID string) string {
	return "activity:" + caregiverID + ":" + childID
}
