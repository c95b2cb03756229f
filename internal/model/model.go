package model

import "time"

const (
	RoleStudent   = "student"
	RoleTeacher   = "teacher"
	RoleCaregiver = "caregiver"
)

const (
	SessionTypeChat    = "chat"
	SessionTypeImage   = "image"
	SessionTypeVoice   = "voice"
	SessionTypeNotes   = "notes"
	SessionTypeSymptom = "symptom"
)

const (
	PodRoleMember = "member"
	PodRoleAdmin  = "admin"
)

const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Profile is the application-level user record, keyed by the auth provider's
// user id. It is distinct from the identity record the provider holds.
type Profile struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	Language       string    `json:"language"`
	SimplifiedMode bool      `json:"simplified_mode"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CaregiverChild struct {
	CaregiverID string    `json:"caregiver_id"`
	ChildID     string    `json:"child_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type StudySession struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	SessionType string    `json:"session_type"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Note struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ClassID     *string   `json:"class_id,omitempty"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Summary     *string   `json:"summary,omitempty"`
	Explanation *string   `json:"explanation,omitempty"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Class struct {
	ID        string    `json:"id"`
	TeacherID string    `json:"teacher_id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	JoinCode  string    `json:"join_code"`
	CreatedAt time.Time `json:"created_at"`
}

type StudyPod struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type PodMember struct {
	PodID    string    `json:"pod_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	FullName string    `json:"full_name"`
	JoinedAt time.Time `json:"joined_at"`
}

type PodMessage struct {
	ID         string    `json:"id"`
	PodID      string    `json:"pod_id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	AIGuidance *string   `json:"ai_guidance,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type PodInvitation struct {
	ID           string    `json:"id"`
	PodID        string    `json:"pod_id"`
	PodName      string    `json:"pod_name,omitempty"`
	InviterID    string    `json:"inviter_id"`
	InviteeEmail string    `json:"invitee_email"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
