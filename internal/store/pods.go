package store

import (
	"context"

	"github.com/luckyrocket0125/studycare-be/internal/model"
)

func (s *Store) InsertPod(ctx context.Context, pod model.StudyPod) (model.StudyPod, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO study_pods (id, name, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, name, description, created_by, created_at
	`, pod.ID, pod.Name, pod.Description, pod.CreatedBy)
	var out model.StudyPod
	err := row.Scan(&out.ID, &out.Name, &out.Description, &out.CreatedBy, &out.CreatedAt)
	return out, err
}

func (s *Store) GetPod(ctx context.Context, podID string) (model.StudyPod, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, description, created_by, created_at
		FROM study_pods
		WHERE id = $1
	`, podID)
	var pod model.StudyPod
	err := row.Scan(&pod.ID, &pod.Name, &pod.Description, &pod.CreatedBy, &pod.CreatedAt)
	return pod, err
}

func (s *Store) DeletePod(ctx context.Context, podID string) error {
	for _, query := range []string{
		`DELETE FROM pod_messages WHERE pod_id = $1`,
		`DELETE FROM pod_invitations WHERE pod_id = $1`,
		`DELETE FROM pod_members WHERE pod_id = $1`,
		`DELETE FROM study_pods WHERE id = $1`,
	} {
		if _, err := s.pool.Exec(ctx, query, podID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListPodsForUser(ctx context.Context, userID string) ([]model.StudyPod, []int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sp.id, sp.name, sp.description, sp.created_by, sp.created_at,
		       (SELECT COUNT(*) FROM pod_members pm2 WHERE pm2.pod_id = sp.id)
		FROM pod_members pm
		JOIN study_pods sp ON sp.id = pm.pod_id
		WHERE pm.user_id = $1
		ORDER BY sp.created_at DESC
	`, userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var pods []model.StudyPod
	var counts []int
	for rows.Next() {
		var pod model.StudyPod
		var count int
		if err := rows.Scan(&pod.ID, &pod.Name, &pod.Description, &pod.CreatedBy, &pod.CreatedAt, &count); err != nil {
			return nil, nil, err
		}
		pods = append(pods, pod)
		counts = append(counts, count)
	}
	return pods, counts, rows.Err()
}

func (s *Store) InsertPodMember(ctx context.Context, podID, userID, role string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pod_members (pod_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, now())
	`, podID, userID, role)
	return err
}

func (s *Store) GetPodMember(ctx context.Context, podID, userID string) (model.PodMember, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT pm.pod_id, pm.user_id, pm.role, p.full_name, pm.joined_at
		FROM pod_members pm
		JOIN profiles p ON p.id = pm.user_id
		WHERE pm.pod_id = $1 AND pm.user_id = $2
	`, podID, userID)
	var member model.PodMember
	err := row.Scan(&member.PodID, &member.UserID, &member.Role, &member.FullName, &member.JoinedAt)
	return member, err
}

func (s *Store) ListPodMembers(ctx context.Context, podID string) ([]model.PodMember, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pm.pod_id, pm.user_id, pm.role, p.full_name, pm.joined_at
		FROM pod_members pm
		JOIN profiles p ON p.id = pm.user_id
		WHERE pm.pod_id = $1
		ORDER BY pm.joined_at
	`, podID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []model.PodMember
	for rows.Next() {
		var member model.PodMember
		if err := rows.Scan(&member.PodID, &member.UserID, &member.Role, &member.FullName, &member.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (s *Store) DeletePodMember(ctx context.Context, podID, userID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM pod_members WHERE pod_id = $1 AND user_id = $2
	`, podID, userID)
	return err
}

func (s *Store) CountPodMembers(ctx context.Context, podID string) (total, admins int, err error) {
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE role = 'admin')
		FROM pod_members
		WHERE pod_id = $1
	`, podID).Scan(&total, &admins)
	return total, admins, err
}

func (s *Store) InsertPodMessage(ctx context.Context, msg model.PodMessage) (model.PodMessage, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO pod_messages (id, pod_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, pod_id, user_id, content, ai_guidance, created_at
	`, msg.ID, msg.PodID, msg.UserID, msg.Content)
	var out model.PodMessage
	err := row.Scan(&out.ID, &out.PodID, &out.UserID, &out.Content, &out.AIGuidance, &out.CreatedAt)
	return out, err
}

func (s *Store) SetPodMessageGuidance(ctx context.Context, messageID, guidance string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE pod_messages SET ai_guidance = $2 WHERE id = $1
	`, messageID, guidance)
	return err
}

func (s *Store) ListPodMessages(ctx context.Context, podID string, limit int) ([]model.PodMessage, error) {
	// Newest window, returned oldest-first for display.
	rows, err := s.pool.Query(ctx, `
		SELECT id, pod_id, user_id, content, ai_guidance, created_at
		FROM (
			SELECT id, pod_id, user_id, content, ai_guidance, created_at
			FROM pod_messages
			WHERE pod_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at
	`, podID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.PodMessage
	for rows.Next() {
		var msg model.PodMessage
		if err := rows.Scan(&msg.ID, &msg.PodID, &msg.UserID, &msg.Content, &msg.AIGuidance, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *Store) InsertPodInvitation(ctx context.Context, inv model.PodInvitation) (model.PodInvitation, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO pod_invitations (id, pod_id, inviter_id, invitee_email, status, created_at)
		VALUES ($1, $2, $3, $4, 'pending', now())
		RETURNING id, pod_id, inviter_id, invitee_email, status, created_at
	`, inv.ID, inv.PodID, inv.InviterID, inv.InviteeEmail)
	var out model.PodInvitation
	err := row.Scan(&out.ID, &out.PodID, &out.InviterID, &out.InviteeEmail, &out.Status, &out.CreatedAt)
	return out, err
}

func (s *Store) GetPodInvitation(ctx context.Context, invitationID string) (model.PodInvitation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT pi.id, pi.pod_id, sp.name, pi.inviter_id, pi.invitee_email, pi.status, pi.created_at
		FROM pod_invitations pi
		JOIN study_pods sp ON sp.id = pi.pod_id
		WHERE pi.id = $1
	`, invitationID)
	var inv model.PodInvitation
	err := row.Scan(&inv.ID, &inv.PodID, &inv.PodName, &inv.InviterID, &inv.InviteeEmail, &inv.Status, &inv.CreatedAt)
	return inv, err
}

func (s *Store) HasPendingInvitation(ctx context.Context, podID, inviteeEmail string) (bool, error) {
	return exists(ctx, s.pool, `
		SELECT 1 FROM pod_invitations
		WHERE pod_id = $1 AND lower(invitee_email) = lower($2) AND status = 'pending'
	`, podID, inviteeEmail)
}

func (s *Store) ListPendingInvitations(ctx context.Context, inviteeEmail string) ([]model.PodInvitation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pi.id, pi.pod_id, sp.name, pi.inviter_id, pi.invitee_email, pi.status, pi.created_at
		FROM pod_invitations pi
		JOIN study_pods sp ON sp.id = pi.pod_id
		WHERE lower(pi.invitee_email) = lower($1) AND pi.status = 'pending'
		ORDER BY pi.created_at DESC
	`, inviteeEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []model.PodInvitation
	for rows.Next() {
		var inv model.PodInvitation
		if err := rows.Scan(&inv.ID, &inv.PodID, &inv.PodName, &inv.InviterID, &inv.InviteeEmail, &inv.Status, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (s *Store) SetInvitationStatus(ctx context.Context, invitationID, status string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE pod_invitations SET status = $2 WHERE id = $1
	`, invitationID, status)
	return err
}
