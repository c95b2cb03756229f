package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/luckyrocket0125/studycare-be/internal/ai"
	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/model"
)

type fakePodStore struct {
	pods        map[string]model.StudyPod
	members     map[string]model.PodMember
	messages    []model.PodMessage
	invitations map[string]model.PodInvitation

	guidanceSet map[string]string
	deletedPods []string
}

func newFakePodStore() *fakePodStore {
	return &fakePodStore{
		pods:        map[string]model.StudyPod{},
		members:     map[string]model.PodMember{},
		invitations: map[string]model.PodInvitation{},
		guidanceSet: map[string]string{},
	}
}

func (f *fakePodStore) InsertPod(_ context.Context, pod model.StudyPod) (model.StudyPod, error) {
	f.pods[pod.ID] = pod
	return pod, nil
}

func (f *fakePodStore) GetPod(_ context.Context, podID string) (model.StudyPod, error) {
	pod, ok := f.pods[podID]
	if !ok {
		return model.StudyPod{}, pgx.ErrNoRows
	}
	return pod, nil
}

func (f *fakePodStore) DeletePod(_ context.Context, podID string) error {
	delete(f.pods, podID)
	f.deletedPods = append(f.deletedPods, podID)
	return nil
}

func (f *fakePodStore) ListPodsForUser(_ context.Context, userID string) ([]model.StudyPod, []int, error) {
	var pods []model.StudyPod
	var counts []int
	for _, m := range f.members {
		if m.UserID != userID {
			continue
		}
		pods = append(pods, f.pods[m.PodID])
		total, _, _ := f.CountPodMembers(context.Background(), m.PodID)
		counts = append(counts, total)
	}
	return pods, counts, nil
}

func (f *fakePodStore) InsertPodMember(_ context.Context, podID, userID, role string) error {
	key := podID + "/" + userID
	if _, ok := f.members[key]; ok {
		return duplicateKeyErr()
	}
	f.members[key] = model.PodMember{PodID: podID, UserID: userID, Role: role}
	return nil
}

func (f *fakePodStore) GetPodMember(_ context.Context, podID, userID string) (model.PodMember, error) {
	m, ok := f.members[podID+"/"+userID]
	if !ok {
		return model.PodMember{}, pgx.ErrNoRows
	}
	return m, nil
}

func (f *fakePodStore) ListPodMembers(_ context.Context, podID string) ([]model.PodMember, error) {
	var out []model.PodMember
	for _, m := range f.members {
		if m.PodID == podID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakePodStore) DeletePodMember(_ context.Context, podID, userID string) error {
	delete(f.members, podID+"/"+userID)
	return nil
}

func (f *fakePodStore) CountPodMembers(_ context.Context, podID string) (int, int, error) {
	total, admins := 0, 0
	for _, m := range f.members {
		if m.PodID != podID {
			continue
		}
		total++
		if m.Role == model.PodRoleAdmin {
			admins++
		}
	}
	return total, admins, nil
}

func (f *fakePodStore) InsertPodMessage(_ context.Context, msg model.PodMessage) (model.PodMessage, error) {
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakePodStore) SetPodMessageGuidance(_ context.Context, messageID, guidance string) error {
	f.guidanceSet[messageID] = guidance
	return nil
}

func (f *fakePodStore) ListPodMessages(_ context.Context, podID string, limit int) ([]model.PodMessage, error) {
	var out []model.PodMessage
	for _, m := range f.messages {
		if m.PodID == podID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakePodStore) InsertPodInvitation(_ context.Context, inv model.PodInvitation) (model.PodInvitation, error) {
	inv.Status = model.InvitationPending
	f.invitations[inv.ID] = inv
	return inv, nil
}

func (f *fakePodStore) GetPodInvitation(_ context.Context, invitationID string) (model.PodInvitation, error) {
	inv, ok := f.invitations[invitationID]
	if !ok {
		return model.PodInvitation{}, pgx.ErrNoRows
	}
	return inv, nil
}

func (f *fakePodStore) HasPendingInvitation(_ context.Context, podID, inviteeEmail string) (bool, error) {
	for _, inv := range f.invitations {
		if inv.PodID == podID && inv.InviteeEmail == inviteeEmail && inv.Status == model.InvitationPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePodStore) ListPendingInvitations(_ context.Context, inviteeEmail string) ([]model.PodInvitation, error) {
	var out []model.PodInvitation
	for _, inv := range f.invitations {
		if inv.InviteeEmail == inviteeEmail && inv.Status == model.InvitationPending {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakePodStore) SetInvitationStatus(_ context.Context, invitationID, status string) error {
	inv, ok := f.invitations[invitationID]
	if !ok {
		return pgx.ErrNoRows
	}
	inv.Status = status
	f.invitations[invitationID] = inv
	return nil
}

func (f *fakePodStore) GetProfileByEmail(_ context.Context, _ string) (model.Profile, error) {
	return model.Profile{}, pgx.ErrNoRows
}

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) ChatCompletion(_ context.Context, _ []ai.Message) (string, error) {
	f.calls++
	return f.reply, f.err
}

func newTestPods(st *fakePodStore, completer *fakeCompleter) *Pods {
	return NewPods(st, completer, zap.NewNop())
}

func TestCreatePodAddsCreatorAsAdmin(t *testing.T) {
	st := newFakePodStore()
	svc := newTestPods(st, &fakeCompleter{})

	pod, err := svc.Create(context.Background(), "u-1", "Algebra crew", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	member, err := st.GetPodMember(context.Background(), pod.ID, "u-1")
	if err != nil {
		t.Fatalf("creator membership missing: %v", err)
	}
	if member.Role != model.PodRoleAdmin {
		t.Fatalf("creator role = %q, want admin", member.Role)
	}
}

func TestPodGetRequiresMembership(t *testing.T) {
	st := newFakePodStore()
	st.pods["p-1"] = model.StudyPod{ID: "p-1", Name: "Pod"}
	svc := newTestPods(st, &fakeCompleter{})

	_, err := svc.Get(context.Background(), "outsider", "p-1")
	if got := apperr.From(err); got.Status != 403 || got.Code != "not_pod_member" {
		t.Fatalf("got %d %q, want 403 not_pod_member", got.Status, got.Code)
	}
}

func TestPodLeaveSoleAdminRejected(t *testing.T) {
	st := newFakePodStore()
	st.pods["p-1"] = model.StudyPod{ID: "p-1"}
	st.members["p-1/admin"] = model.PodMember{PodID: "p-1", UserID: "admin", Role: model.PodRoleAdmin}
	st.members["p-1/member"] = model.PodMember{PodID: "p-1", UserID: "member", Role: model.PodRoleMember}
	svc := newTestPods(st, &fakeCompleter{})

	err := svc.Leave(context.Background(), "admin", "p-1")
	if got := apperr.From(err); got.Status != 403 || got.Code != "sole_admin" {
		t.Fatalf("got %d %q, want 403 sole_admin", got.Status, got.Code)
	}
	if _, err := st.GetPodMember(context.Background(), "p-1", "admin"); err != nil {
		t.Fatal("admin membership should survive a rejected leave")
	}
}

func TestPodLeaveLastMemberDeletesPod(t *testing.T) {
	st := newFakePodStore()
	st.pods["p-1"] = model.StudyPod{ID: "p-1"}
	st.members["p-1/admin"] = model.PodMember{PodID: "p-1", UserID: "admin", Role: model.PodRoleAdmin}
	svc := newTestPods(st, &fakeCompleter{})

	if err := svc.Leave(context.Background(), "admin", "p-1"); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if len(st.deletedPods) != 1 || st.deletedPods[0] != "p-1" {
		t.Fatalf("deleted pods = %v, want [p-1]", st.deletedPods)
	}
}

func TestPodLeaveRegularMember(t *testing.T) {
	st := newFakePodStore()
	st.pods["p-1"] = model.StudyPod{ID: "p-1"}
	st.members["p-1/admin"] = model.PodMember{PodID: "p-1", UserID: "admin", Role: model.PodRoleAdmin}
	st.members["p-1/member"] = model.PodMember{PodID: "p-1", UserID: "member", Role: model.PodRoleMember}
	svc := newTestPods(st, &fakeCompleter{})

	if err := svc.Leave(context.Background(), "member", "p-1"); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if _, err := st.GetPodMember(context.Background(), "p-1", "member"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatal("membership should be gone")
	}
	if len(st.deletedPods) != 0 {
		t.Fatal("pod should survive a regular member leaving")
	}
}

func TestSendMessageAttachesGuidanceToQuestions(t *testing.T) {
	st := newFakePodStore()
	st.pods["p-1"] = model.StudyPod{ID: "p-1"}
	st.members["p-1/u-1"] = model.PodMember{PodID: "p-1", UserID: "u-1", Role: model.PodRoleMember}
	completer := &fakeCompleter{reply: "Try factoring first."}
	svc := newTestPods(st, completer)

	msg, err := svc.SendMessage(context.Background(), model.Profile{ID: "u-1"}, "p-1", "How do I solve x^2-4=0?")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.AIGuidance == nil || *msg.AIGuidance != "Try factoring first." {
		t.Fatalf("guidance = %v", msg.AIGuidance)
	}
	if st.guidanceSet[msg.ID] != "Try factoring first." {
		t.Fatal("guidance was not stored")
	}
}

func TestSendMessageSurvivesGuidanceFailure(t *testing.T) {
	st := newFakePodStore()
	st.pods["p-1"] = model.StudyPod{ID: "p-1"}
	st.members["p-1/u-1"] = model.PodMember{PodID: "p-1", UserID: "u-1", Role: model.PodRoleMember}
	completer := &fakeCompleter{err: errors.New("upstream down")}
	svc := newTestPods(st, completer)

	msg, err := svc.SendMessage(context.Background(), model.Profile{ID: "u-1"}, "p-1", "What is a derivative?")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.AIGuidance != nil {
		t.Fatal("guidance should be absent on failure")
	}
	if len(st.messages) != 1 {
		t.Fatalf("messages = %d, want the member message persisted", len(st.messages))
	}
}

func TestSendMessageSkipsGuidanceForStatements(t *testing.T) {
	st := newFakePodStore()
	st.pods["p-1"] = model.StudyPod{ID: "p-1"}
	st.members["p-1/u-1"] = model.PodMember{PodID: "p-1", UserID: "u-1", Role: model.PodRoleMember}
	completer := &fakeCompleter{reply: "unused"}
	svc := newTestPods(st, completer)

	msg, err := svc.SendMessage(context.Background(), model.Profile{ID: "u-1"}, "p-1", "I finished the homework.")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.AIGuidance != nil || completer.calls != 0 {
		t.Fatalf("guidance should be skipped, calls = %d", completer.calls)
	}
}

func TestInviteRequiresAdmin(t *testing.T) {
	st := newFakePodStore()
	st.pods["p-1"] = model.StudyPod{ID: "p-1"}
	st.members["p-1/u-1"] = model.PodMember{PodID: "p-1", UserID: "u-1", Role: model.PodRoleMember}
	svc := newTestPods(st, &fakeCompleter{})

	_, err := svc.Invite(context.Background(), "u-1", "p-1", "friend@example.com")
	if got := apperr.From(err); got.Status != 403 || got.Code != "not_pod_admin" {
		t.Fatalf("got %d %q, want 403 not_pod_admin", got.Status, got.Code)
	}
}

func TestInviteDuplicatePendingRejected(t *testing.T) {
	st := newFakePodStore()
	st.pods["p-1"] = model.StudyPod{ID: "p-1"}
	st.members["p-1/admin"] = model.PodMember{PodID: "p-1", UserID: "admin", Role: model.PodRoleAdmin}
	svc := newTestPods(st, &fakeCompleter{})

	if _, err := svc.Invite(context.Background(), "admin", "p-1", "friend@example.com"); err != nil {
		t.Fatalf("first invite: %v", err)
	}
	_, err := svc.Invite(context.Background(), "admin", "p-1", "friend@example.com")
	if got := apperr.From(err); got.Code != "already_invited" {
		t.Fatalf("got code %q, want already_invited", got.Code)
	}
}

func TestAcceptInvitationJoinsPod(t *testing.T) {
	st := newFakePodStore()
	st.pods["p-1"] = model.StudyPod{ID: "p-1", Name: "Pod"}
	st.invitations["inv-1"] = model.PodInvitation{
		ID: "inv-1", PodID: "p-1", InviteeEmail: "kid@example.com", Status: model.InvitationPending,
	}
	svc := newTestPods(st, &fakeCompleter{})

	pod, err := svc.Accept(context.Background(), model.Profile{ID: "u-9", Email: "kid@example.com"}, "inv-1")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if pod.ID != "p-1" {
		t.Fatalf("pod.ID = %q", pod.ID)
	}
	member, err := st.GetPodMember(context.Background(), "p-1", "u-9")
	if err != nil || member.Role != model.PodRoleMember {
		t.Fatalf("membership = %+v, err = %v", member, err)
	}
	if st.invitations["inv-1"].Status != model.InvitationAccepted {
		t.Fatalf("invitation status = %q", st.invitations["inv-1"].Status)
	}
}

func TestAcceptInvitationForOtherUserRejected(t *testing.T) {
	st := newFakePodStore()
	st.invitations["inv-1"] = model.PodInvitation{
		ID: "inv-1", PodID: "p-1", InviteeEmail: "kid@example.com", Status: model.InvitationPending,
	}
	svc := newTestPods(st, &fakeCompleter{})

	_, err := svc.Accept(context.Background(), model.Profile{ID: "u-9", Email: "other@example.com"}, "inv-1")
	if got := apperr.From(err); got.Status != 403 || got.Code != "not_invitee" {
		t.Fatalf("got %d %q, want 403 not_invitee", got.Status, got.Code)
	}
}

func TestRemoveMemberRules(t *testing.T) {
	st := newFakePodStore()
	st.pods["p-1"] = model.StudyPod{ID: "p-1"}
	st.members["p-1/admin"] = model.PodMember{PodID: "p-1", UserID: "admin", Role: model.PodRoleAdmin}
	st.members["p-1/admin2"] = model.PodMember{PodID: "p-1", UserID: "admin2", Role: model.PodRoleAdmin}
	st.members["p-1/member"] = model.PodMember{PodID: "p-1", UserID: "member", Role: model.PodRoleMember}
	svc := newTestPods(st, &fakeCompleter{})

	if err := svc.RemoveMember(context.Background(), "admin", "p-1", "admin"); apperr.From(err).Code != "cannot_remove_self" {
		t.Fatalf("self removal: %v", err)
	}
	if err := svc.RemoveMember(context.Background(), "admin", "p-1", "admin2"); apperr.From(err).Code != "cannot_remove_admin" {
		t.Fatalf("admin removal: %v", err)
	}
	if err := svc.RemoveMember(context.Background(), "member", "p-1", "admin"); apperr.From(err).Code != "not_pod_admin" {
		t.Fatalf("member as remover: %v", err)
	}
	if err := svc.RemoveMember(context.Background(), "admin", "p-1", "member"); err != nil {
		t.Fatalf("valid removal: %v", err)
	}
}
