package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/identity"
	"github.com/luckyrocket0125/studycare-be/internal/model"
)

type AuthStore interface {
	ProfileStore
	UpdateProfile(ctx context.Context, userID string, fullName, language *string, simplified *bool) (model.Profile, error)
}

// Provider is the auth provider surface the auth service consumes.
type Provider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (identity.User, error)
	SignIn(ctx context.Context, email, password string) (identity.Tokens, error)
	SignOut(ctx context.Context, accessToken string) error
	VerifyToken(ctx context.Context, token string) (identity.User, error)
}

type Auth struct {
	store    AuthStore
	provider Provider
	logger   *zap.Logger
}

func NewAuth(store AuthStore, provider Provider, logger *zap.Logger) *Auth {
	return &Auth{store: store, provider: provider, logger: logger}
}

type RegisterInput struct {
	Email          string
	Password       string
	FullName       string
	Role           string
	Language       string
	SimplifiedMode bool
}

type LoginResult struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int           `json:"expires_in"`
	Profile      model.Profile `json:"profile"`
}

func (s *Auth) Register(ctx context.Context, in RegisterInput) (model.Profile, error) {
	in.Email = normalizeEmail(in.Email)
	if in.Email == "" || in.Password == "" || in.FullName == "" {
		return model.Profile{}, apperr.Validation("missing_fields", "email, password and full name are required")
	}
	switch in.Role {
	case model.RoleStudent, model.RoleTeacher, model.RoleCaregiver:
	default:
		return model.Profile{}, apperr.Validation("invalid_role", "role must be student, teacher or caregiver")
	}
	if in.Language == "" {
		in.Language = "en"
	}

	user, err := s.provider.SignUp(ctx, in.Email, in.Password, map[string]string{
		"full_name": in.FullName,
		"role":      in.Role,
		"language":  in.Language,
	})
	if err != nil {
		var provErr *identity.ProviderError
		if errors.As(err, &provErr) && provErr.Status < 500 {
			return model.Profile{}, apperr.Validation("registration_failed", "could not register with this email")
		}
		return model.Profile{}, apperr.Upstream("auth_provider_error", "registration is temporarily unavailable")
	}

	profile, err := provisionProfile(ctx, s.store, user)
	if err != nil {
		return model.Profile{}, err
	}
	if in.SimplifiedMode {
		simplified := true
		if updated, err := s.store.UpdateProfile(ctx, profile.ID, nil, nil, &simplified); err == nil {
			profile = updated
		}
	}
	return profile, nil
}

func (s *Auth) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, apperr.Validation("missing_credentials", "email and password are required")
	}

	tokens, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		var provErr *identity.ProviderError
		if errors.As(err, &provErr) && provErr.Status < 500 {
			return LoginResult{}, apperr.Unauthorized("invalid_credentials", "invalid email or password")
		}
		return LoginResult{}, apperr.Upstream("auth_provider_error", "login is temporarily unavailable")
	}

	profile, err := s.profileFor(ctx, tokens.User)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		Profile:      profile,
	}, nil
}

func (s *Auth) Logout(ctx context.Context, accessToken string) error {
	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		s.logger.Warn("sign-out against auth provider failed", zap.Error(err))
	}
	return nil
}

// Authenticate resolves a bearer token to the caller's profile, provisioning
// the profile row when the identity exists without one.
func (s *Auth) Authenticate(ctx context.Context, token string) (model.Profile, error) {
	user, err := s.provider.VerifyToken(ctx, token)
	if err != nil {
		return model.Profile{}, apperr.Unauthorized("invalid_token", "invalid or expired token")
	}
	return s.profileFor(ctx, user)
}

func (s *Auth) profileFor(ctx context.Context, user identity.User) (model.Profile, error) {
	profile, err := s.store.GetProfileByID(ctx, user.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, err
	}
	s.logger.Info("provisioning missing profile for valid identity", zap.String("user_id", user.ID))
	return provisionProfile(ctx, s.store, user)
}

type ProfileUpdate struct {
	FullName       *string
	Language       *string
	SimplifiedMode *bool
}

func (s *Auth) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (model.Profile, error) {
	if update.FullName == nil && update.Language == nil && update.SimplifiedMode == nil {
		return model.Profile{}, apperr.Validation("empty_update", "nothing to update")
	}
	if update.FullName != nil && *update.FullName == "" {
		return model.Profile{}, apperr.Validation("invalid_name", "full name cannot be empty")
	}
	profile, err := s.store.UpdateProfile(ctx, userID, update.FullName, update.Language, update.SimplifiedMode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, apperr.NotFound("profile_not_found", "profile not found")
		}
		return model.Profile{}, err
	}
	return profile, nil
}
