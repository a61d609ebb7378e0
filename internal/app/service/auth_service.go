package service

import (
	"context"
	"fmt"

	"fcmanager/internal/common"
	"fcmanager/internal/common/security"
	"fcmanager/internal/domain/model"
	"fcmanager/internal/domain/repository"

	"github.com/google/uuid"
)

// AuthService is the credential store: registration with password policy
// enforcement, and login against the stored bcrypt hash.
type AuthService struct {
	accountRepo repository.AccountRepository
}

func NewAuthService(accountRepo repository.AccountRepository) *AuthService {
	return &AuthService{accountRepo: accountRepo}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Account *model.Account `json:"account"`
	Token   string         `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.Account, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.Errorf("username and password are required: %w", common.ErrBadRequest)
	}
	if err := security.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		ID:             uuid.NewString(),
		Username:       req.Username,
		HashedPassword: hashedPassword,
		Status:         model.AccountStatusPending,
		Role:           model.RoleUser,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		// Repo classifies a duplicate username as a validation failure.
		return nil, err
	}

	account.HashedPassword = ""
	return account, nil
}

// Login does not check account status: a still-pending account may
// authenticate, approval only gates crawl privileges.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.Errorf("username and password are required: %w", common.ErrBadRequest)
	}

	account, err := s.accountRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err // common.ErrNotFound when the username is absent
	}

	if !security.CheckPasswordHash(req.Password, account.HashedPassword) {
		return nil, common.Errorf("invalid credentials: %w", common.ErrUnauthorized)
	}

	token, err := security.GenerateToken(account.ID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	account.HashedPassword = ""
	return &AuthResponse{Account: account, Token: token}, nil
}
