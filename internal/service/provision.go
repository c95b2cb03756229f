package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/luckyrocket0125/studycare-be/internal/apperr"
	"github.com/luckyrocket0125/studycare-be/internal/identity"
	"github.com/luckyrocket0125/studycare-be/internal/model"
	"github.com/luckyrocket0125/studycare-be/internal/store"
)

// ProfileStore is the slice of the store needed to resolve or create a
// profile row for an existing identity.
type ProfileStore interface {
	GetProfileByID(ctx context.Context, userID string) (model.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (model.Profile, error)
	InsertProfile(ctx context.Context, p model.Profile) (model.Profile, error)
	CreateProfilePrivileged(ctx context.Context, p model.Profile) (model.Profile, error)
}

// provisionProfile creates the profile row for an identity that has none.
// Contract: attempt create; if another request created it concurrently
// (duplicate key), fetch and return the existing row; a conflict is never
// surfaced to the caller. The privileged database function is tried first,
// a direct insert is the fallback when the function itself fails.
func provisionProfile(ctx context.Context, profiles ProfileStore, user identity.User) (model.Profile, error) {
	p := model.Profile{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.Metadata["full_name"],
		Role:     user.Metadata["role"],
		Language: user.Metadata["language"],
	}
	if p.Role == "" {
		p.Role = model.RoleStudent
	}
	if p.Language == "" {
		p.Language = "en"
	}

	created, err := profiles.CreateProfilePrivileged(ctx, p)
	if err == nil {
		return created, nil
	}
	if store.IsUniqueViolation(err) {
		return fetchExisting(ctx, profiles, user.ID)
	}

	created, err = profiles.InsertProfile(ctx, p)
	if err == nil {
		return created, nil
	}
	if store.IsUniqueViolation(err) {
		return fetchExisting(ctx, profiles, user.ID)
	}
	return model.Profile{}, &apperr.Error{
		Status:  http.StatusInternalServerError,
		Code:    "profile_provisioning_failed",
		Message: "could not create user profile",
	}
}

func fetchExisting(ctx context.Context, profiles ProfileStore, userID string) (model.Profile, error) {
	existing, err := profiles.GetProfileByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, apperr.Upstream("profile_provisioning_failed", "could not create user profile")
		}
		return model.Profile{}, err
	}
	return existing, nil
}
