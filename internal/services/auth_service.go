package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yoockh/intervue/internal/models"
	pgrepo "github.com/yoockh/intervue/internal/repositories/postgres"
	"github.com/yoockh/intervue/internal/utils"
)

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
}

type authService struct {
	users  pgrepo.UserRepository
	tokens utils.TokenConfig
	now    func() time.Time
}

func NewAuthService(users pgrepo.UserRepository, tokens utils.TokenConfig) AuthService {
	return &authService{users: users, tokens: tokens, now: time.Now}
}

func (s *authService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	const op = "AuthService.Register"

	email = pgrepo.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, utils.E(utils.CodeInvalidArgument, op, "valid email is required", nil)
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		if errors.Is(err, utils.ErrWeakPassword) {
			return nil, utils.E(utils.CodeInvalidArgument, op, err.Error(), err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}

	now := s.now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.E(utils.CodeConflict, op, "email already registered", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to create user", err)
	}
	return s.issue(op, u)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	const op = "AuthService.Login"

	u, err := s.users.GetByEmail(ctx, pgrepo.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeUnauthorized, op, "invalid credentials", nil)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	if err := utils.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, utils.E(utils.CodeUnauthorized, op, "invalid credentials", nil)
	}
	return s.issue(op, u)
}

func (s *authService) ChangePassword(ctx context.Context, userID, current, next string) error {
	const op = "AuthService.ChangePassword"

	if current == "" || next == "" {
		return utils.E(utils.CodeInvalidArgument, op, "current and new password are required", nil)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	if err := utils.CheckPassword(u.PasswordHash, current); err != nil {
		return utils.E(utils.CodeUnauthorized, op, "current password is incorrect", nil)
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		if errors.Is(err, utils.ErrWeakPassword) {
			return utils.E(utils.CodeInvalidArgument, op, err.Error(), err)
		}
		return utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update password", err)
	}
	return nil
}

func (s *authService) issue(op string, u *models.User) (*AuthResult, error) {
	tok, err := utils.IssueToken(s.tokens, u.ID, u.Email, string(u.Role), s.now())
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	return &AuthResult{Token: tok, User: u}, nil
}
