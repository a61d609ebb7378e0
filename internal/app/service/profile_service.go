package service

import (
	"context"

	"fcmanager/internal/domain/model"
	"fcmanager/internal/domain/repository"
)

// ProfileService stores the optional descriptive extension of an account.
type ProfileService struct {
	profileRepo repository.ProfileRepository
}

func NewProfileService(profileRepo repository.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

// Upsert inserts or overwrites the profile atomically, keyed on the user
// id. Overwrites bump updated_at.
func (s *ProfileService) Upsert(ctx context.Context, userID, nickname, name, department string) (string, error) {
	profile := &model.Profile{
		UserID:     userID,
		Nickname:   nickname,
		Name:       name,
		Department: department,
	}
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return "", err
	}
	return "profile updated", nil
}

// Get returns the profile joined with the account role, or
// common.ErrNotFound when no profile row exists yet. Callers that want
// auto-provisioning upsert a default profile and retry once.
func (s *ProfileService) Get(ctx context.Context, userID string, includeTimestamps bool) (*model.ProfileView, error) {
	profile, role, err := s.profileRepo.GetWithRole(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &model.ProfileView{
		Nickname:   profile.Nickname,
		Name:       profile.Name,
		Department: profile.Department,
		Role:       role,
	}
	if includeTimestamps {
		view.CreatedAt = &profile.CreatedAt
		view.UpdatedAt = &profile.UpdatedAt
	}
	return view, nil
}
