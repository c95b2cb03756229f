package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/luckyrocket0125/studycare-be/internal/ai"
	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/model"
	"github.com/luckyrocket0125/studycare-be/internal/store"
)

const podMessageWindow = 100

type PodStore interface {
	InsertPod(ctx context.Context, pod model.StudyPod) (model.StudyPod, error)
	GetPod(ctx context.Context, podID string) (model.StudyPod, error)
	DeletePod(ctx context.Context, podID string) error
	ListPodsForUser(ctx context.Context, userID string) ([]model.StudyPod, []int, error)
	InsertPodMember(ctx context.Context, podID, userID, role string) error
	GetPodMember(ctx context.Context, podID, userID string) (model.PodMember, error)
	ListPodMembers(ctx context.Context, podID string) ([]model.PodMember, error)
	DeletePodMember(ctx context.Context, podID, userID string) error
	CountPodMembers(ctx context.Context, podID string) (total, admins int, err error)
	InsertPodMessage(ctx context.Context, msg model.PodMessage) (model.PodMessage, error)
	SetPodMessageGuidance(ctx context.Context, messageID, guidance string) error
	ListPodMessages(ctx context.Context, podID string, limit int) ([]model.PodMessage, error)
	InsertPodInvitation(ctx context.Context, inv model.PodInvitation) (model.PodInvitation, error)
	GetPodInvitation(ctx context.Context, invitationID string) (model.PodInvitation, error)
	HasPendingInvitation(ctx context.Context, podID, inviteeEmail string) (bool, error)
	ListPendingInvitations(ctx context.Context, inviteeEmail string) ([]model.PodInvitation, error)
	SetInvitationStatus(ctx context.Context, invitationID, status string) error
	GetProfileByEmail(ctx context.Context, email string) (model.Profile, error)
}

type Pods struct {
	store     PodStore
	completer Completer
	logger    *zap.Logger
}

func NewPods(store PodStore, completer Completer, logger *zap.Logger) *Pods {
	return &Pods{store: store, completer: completer, logger: logger}
}

type PodSummary struct {
	model.StudyPod
	MemberCount int `json:"member_count"`
}

type PodDetail struct {
	model.StudyPod
	Members []model.PodMember `json:"members"`
}

// Create inserts the pod, then adds the creator as admin. The two writes are
// sequential and non-atomic; a crash between them leaves a memberless pod.
func (s *Pods) Create(ctx context.Context, creatorID, name, description string) (model.StudyPod, error) {
	if name == "" {
		return model.StudyPod{}, apperr.Validation("missing_name", "pod name is required")
	}

	pod, err := s.store.InsertPod(ctx, model.StudyPod{
		ID:          newID(),
		Name:        name,
		Description: description,
		CreatedBy:   creatorID,
	})
	if err != nil {
		return model.StudyPod{}, err
	}
	if err := s.store.InsertPodMember(ctx, pod.ID, creatorID, model.PodRoleAdmin); err != nil {
		return model.StudyPod{}, err
	}
	return pod, nil
}

func (s *Pods) List(ctx context.Context, userID string) ([]PodSummary, error) {
	pods, counts, err := s.store.ListPodsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]PodSummary, 0, len(pods))
	for i, pod := range pods {
		summaries = append(summaries, PodSummary{StudyPod: pod, MemberCount: counts[i]})
	}
	return summaries, nil
}

func (s *Pods) Get(ctx context.Context, userID, podID string) (PodDetail, error) {
	if _, err := s.membership(ctx, podID, userID); err != nil {
		return PodDetail{}, err
	}
	pod, err := s.store.GetPod(ctx, podID)
	if err != nil {
		return PodDetail{}, err
	}
	members, err := s.store.ListPodMembers(ctx, podID)
	if err != nil {
		return PodDetail{}, err
	}
	return PodDetail{StudyPod: pod, Members: members}, nil
}

// Invite creates a pending invitation for an email address. Admin only.
func (s *Pods) Invite(ctx context.Context, inviterID, podID, inviteeEmail string) (model.PodInvitation, error) {
	inviteeEmail = normalizeEmail(inviteeEmail)
	if inviteeEmail == "" {
		return model.PodInvitation{}, apperr.Validation("missing_email", "invitee email is required")
	}

	member, err := s.membership(ctx, podID, inviterID)
	if err != nil {
		return model.PodInvitation{}, err
	}
	if member.Role != model.PodRoleAdmin {
		return model.PodInvitation{}, apperr.Forbidden("not_pod_admin", "only admins can invite members")
	}

	if invitee, err := s.store.GetProfileByEmail(ctx, inviteeEmail); err == nil {
		if _, err := s.store.GetPodMember(ctx, podID, invitee.ID); err == nil {
			return model.PodInvitation{}, apperr.Conflict("already_member", "this user is already in the pod")
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return model.PodInvitation{}, err
	}

	pending, err := s.store.HasPendingInvitation(ctx, podID, inviteeEmail)
	if err != nil {
		return model.PodInvitation{}, err
	}
	if pending {
		return model.PodInvitation{}, apperr.Conflict("already_invited", "an invitation is already pending")
	}

	return s.store.InsertPodInvitation(ctx, model.PodInvitation{
		ID:           newID(),
		PodID:        podID,
		InviterID:    inviterID,
		InviteeEmail: inviteeEmail,
	})
}

func (s *Pods) ListInvitations(ctx context.Context, email string) ([]model.PodInvitation, error) {
	return s.store.ListPendingInvitations(ctx, normalizeEmail(email))
}

// Accept transitions a pending invitation and adds the membership.
func (s *Pods) Accept(ctx context.Context, caller model.Profile, invitationID string) (model.StudyPod, error) {
	inv, err := s.callerInvitation(ctx, caller, invitationID)
	if err != nil {
		return model.StudyPod{}, err
	}

	if err := s.store.InsertPodMember(ctx, inv.PodID, caller.ID, model.PodRoleMember); err != nil {
		if !store.IsUniqueViolation(err) {
			return model.StudyPod{}, err
		}
		// Already a member; still mark the invitation as handled.
	}
	if err := s.store.SetInvitationStatus(ctx, invitationID, model.InvitationAccepted); err != nil {
		return model.StudyPod{}, err
	}
	return s.store.GetPod(ctx, inv.PodID)
}

func (s *Pods) Decline(ctx context.Context, caller model.Profile, invitationID string) error {
	if _, err := s.callerInvitation(ctx, caller, invitationID); err != nil {
		return err
	}
	return s.store.SetInvitationStatus(ctx, invitationID, model.InvitationDeclined)
}

func (s *Pods) callerInvitation(ctx context.Context, caller model.Profile, invitationID string) (model.PodInvitation, error) {
	inv, err := s.store.GetPodInvitation(ctx, invitationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PodInvitation{}, apperr.NotFound("invitation_not_found", "invitation not found")
		}
		return model.PodInvitation{}, err
	}
	if !strings.EqualFold(inv.InviteeEmail, caller.Email) {
		return model.PodInvitation{}, apperr.Forbidden("not_invitee", "this invitation is for another user")
	}
	if inv.Status != model.InvitationPending {
		return model.PodInvitation{}, apperr.Conflict("invitation_closed", "this invitation was already handled")
	}
	return inv, nil
}

// SendMessage persists the member's message, then attaches AI guidance on a
// best-effort basis: guidance failure never fails the send.
func (s *Pods) SendMessage(ctx context.Context, caller model.Profile, podID, content string) (model.PodMessage, error) {
	if content == "" {
		return model.PodMessage{}, apperr.Validation("missing_message", "message content is required")
	}
	if _, err := s.membership(ctx, podID, caller.ID); err != nil {
		return model.PodMessage{}, err
	}

	msg, err := s.store.InsertPodMessage(ctx, model.PodMessage{
		ID:      newID(),
		PodID:   podID,
		UserID:  caller.ID,
		Content: content,
	})
	if err != nil {
		return model.PodMessage{}, err
	}

	if looksLikeQuestion(content) {
		guidance, err := s.completer.ChatCompletion(ctx, []ai.Message{
			ai.TextMessage("system", podGuidancePrompt()),
			ai.TextMessage("user", content),
		})
		if err != nil {
			s.logger.Warn("pod guidance skipped", zap.String("pod_id", podID), zap.Error(err))
			return msg, nil
		}
		if err := s.store.SetPodMessageGuidance(ctx, msg.ID, guidance); err != nil {
			s.logger.Warn("pod guidance store failed", zap.String("message_id", msg.ID), zap.Error(err))
			return msg, nil
		}
		msg.AIGuidance = &guidance
	}
	return msg, nil
}

func (s *Pods) ListMessages(ctx context.Context, userID, podID string) ([]model.PodMessage, error) {
	if _, err := s.membership(ctx, podID, userID); err != nil {
		return nil, err
	}
	return s.store.ListPodMessages(ctx, podID, podMessageWindow)
}

// Leave removes the caller's membership. The sole admin of a pod with other
// members cannot leave; the last member leaving deletes the pod.
func (s *Pods) Leave(ctx context.Context, userID, podID string) error {
	member, err := s.membership(ctx, podID, userID)
	if err != nil {
		return err
	}
	total, admins, err := s.store.CountPodMembers(ctx, podID)
	if err != nil {
		return err
	}

	if total == 1 {
		return s.store.DeletePod(ctx, podID)
	}
	if member.Role == model.PodRoleAdmin && admins == 1 {
		return apperr.Forbidden("sole_admin", "promote another member to admin before leaving")
	}
	return s.store.DeletePodMember(ctx, podID, userID)
}

// RemoveMember lets an admin remove a non-admin member.
func (s *Pods) RemoveMember(ctx context.Context, callerID, podID, targetID string) error {
	caller, err := s.membership(ctx, podID, callerID)
	if err != nil {
		return err
	}
	if caller.Role != model.PodRoleAdmin {
		return apperr.Forbidden("not_pod_admin", "only admins can remove members")
	}
	if targetID == callerID {
		return apperr.Validation("cannot_remove_self", "use leave to exit the pod")
	}

	target, err := s.store.GetPodMember(ctx, podID, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("member_not_found", "this user is not in the pod")
		}
		return err
	}
	if target.Role == model.PodRoleAdmin {
		return apperr.Forbidden("cannot_remove_admin", "admins cannot remove other admins")
	}
	return s.store.DeletePodMember(ctx, podID, targetID)
}

func (s *Pods) membership(ctx context.Context, podID, userID string) (model.PodMember, error) {
	member, err := s.store.GetPodMember(ctx, podID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PodMember{}, apperr.Forbidden("not_pod_member", "you are not a member of this pod")
		}
		return model.PodMember{}, err
	}
	return member, nil
}

func looksLikeQuestion(content string) bool {
	trimmed := strings.TrimSpace(content)
	if strings.Contains(trimmed, "?") {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"how ", "why ", "what ", "when ", "where ", "who ", "can ", "does ", "help"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
