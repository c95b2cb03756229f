package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/identity"
	"github.com/luckyrocket0125/studycare-be/internal/model"
)

type fakeAuthStore struct {
	*fakeCaregiverStore
}

func (f *fakeAuthStore) UpdateProfile(_ context.Context, userID string, fullName, language *string, simplified *bool) (model.Profile, error) {
	p := f.profilesByID[userID]
	if fullName != nil {
		p.FullName = *fullName
	}
	if language != nil {
		p.Language = *language
	}
	if simplified != nil {
		p.SimplifiedMode = *simplified
	}
	f.addProfile(p)
	return p, nil
}

type fakeProvider struct {
	signUpUser identity.User
	signUpErr  error
	signInErr  error
	tokens     identity.Tokens
	verifyUser identity.User
	verifyErr  error
}

func (f *fakeProvider) SignUp(context.Context, string, string, map[string]string) (identity.User, error) {
	return f.signUpUser, f.signUpErr
}

func (f *fakeProvider) SignIn(context.Context, string, string) (identity.Tokens, error) {
	return f.tokens, f.signInErr
}

func (f *fakeProvider) SignOut(context.Context, string) error { return nil }

func (f *fakeProvider) VerifyToken(context.Context, string) (identity.User, error) {
	return f.verifyUser, f.verifyErr
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := NewAuth(&fakeAuthStore{newFakeCaregiverStore()}, &fakeProvider{}, zap.NewNop())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "kid@example.com", Password: "pw", FullName: "Kid", Role: "admin",
	})
	if got := apperr.From(err); got.Code != "invalid_role" {
		t.Fatalf("got code %q, want invalid_role", got.Code)
	}
}

func TestRegisterMapsProviderRejection(t *testing.T) {
	provider := &fakeProvider{signUpErr: &identity.ProviderError{Status: 422, Body: "email taken"}}
	svc := NewAuth(&fakeAuthStore{newFakeCaregiverStore()}, provider, zap.NewNop())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "kid@example.com", Password: "pw", FullName: "Kid", Role: model.RoleStudent,
	})
	if got := apperr.From(err); got.Status != 400 || got.Code != "registration_failed" {
		t.Fatalf("got %d %q, want 400 registration_failed", got.Status, got.Code)
	}
}

func TestRegisterProvisionsProfile(t *testing.T) {
	st := &fakeAuthStore{newFakeCaregiverStore()}
	provider := &fakeProvider{signUpUser: identity.User{
		ID:       "u-1",
		Email:    "kid@example.com",
		Metadata: map[string]string{"full_name": "Kid", "role": "student", "language": "fr"},
	}}
	svc := NewAuth(st, provider, zap.NewNop())

	profile, err := svc.Register(context.Background(), RegisterInput{
		Email: "kid@example.com", Password: "pw", FullName: "Kid", Role: model.RoleStudent, Language: "fr",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if profile.ID != "u-1" || profile.Language != "fr" {
		t.Fatalf("profile = %+v", profile)
	}
}

func TestLoginMapsInvalidCredentials(t *testing.T) {
	provider := &fakeProvider{signInErr: &identity.ProviderError{Status: 400, Body: "invalid_grant"}}
	svc := NewAuth(&fakeAuthStore{newFakeCaregiverStore()}, provider, zap.NewNop())

	_, err := svc.Login(context.Background(), "kid@example.com", "wrong")
	if got := apperr.From(err); got.Status != 401 || got.Code != "invalid_credentials" {
		t.Fatalf("got %d %q, want 401 invalid_credentials", got.Status, got.Code)
	}
}

func TestAuthenticateProvisionsMissingProfile(t *testing.T) {
	st := &fakeAuthStore{newFakeCaregiverStore()}
	provider := &fakeProvider{verifyUser: identity.User{
		ID:       "u-7",
		Email:    "late@example.com",
		Metadata: map[string]string{"role": "student"},
	}}
	svc := NewAuth(st, provider, zap.NewNop())

	profile, err := svc.Authenticate(context.Background(), "token")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if profile.ID != "u-7" || profile.Role != model.RoleStudent {
		t.Fatalf("profile = %+v", profile)
	}
	if len(st.insertedProfiles) != 1 {
		t.Fatalf("provisioned %d profiles, want 1", len(st.insertedProfiles))
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	provider := &fakeProvider{verifyErr: &identity.ProviderError{Status: 401, Body: "bad token"}}
	svc := NewAuth(&fakeAuthStore{newFakeCaregiverStore()}, provider, zap.NewNop())

	_, err := svc.Authenticate(context.Background(), "bogus")
	if got := apperr.From(err); got.Status != 401 || got.Code != "invalid_token" {
		t.Fatalf("got %d %q, want 401 invalid_token", got.Status, got.Code)
	}
}
