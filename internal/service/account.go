package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/clock"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

const minPasswordLen = 6

// TokenConfig controls token signing and lifetimes.
type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// Session is what a successful sign-in returns to the client.
type Session struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// AccountInput registers a customer or provisions staff.
type AccountInput struct {
	Email    string
	Password string
	Name     string
	Role     model.Role
}

type AccountService struct {
	store  repository.Store
	clock  clock.Clock
	tokens TokenConfig
}

func NewAccountService(store repository.Store, clk clock.Clock, tokens TokenConfig) *AccountService {
	return &AccountService{store: store, clock: clk, tokens: tokens}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (in AccountInput) validate() error {
	var fields []apperr.FieldError
	if _, err := mail.ParseAddress(normalizeEmail(in.Email)); err != nil {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "must be a valid email"})
	}
	if len(in.Password) < minPasswordLen {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "must be at least 6 characters"})
	}
	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "required"})
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid account", fields...)
	}
	return nil
}

func (s *AccountService) createUser(ctx context.Context, tx repository.Tx, in AccountInput) (*model.User, error) {
	hash, err := utils.HashPassword(in.Password, s.tokens.BcryptCost)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	u := &model.User{
		Email:        normalizeEmail(in.Email),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// issue signs an access token and stores a fresh refresh token for u.
func (s *AccountService) issue(ctx context.Context, tx repository.Tx, u *model.User) (*Session, error) {
	access, err := utils.NewAccessToken(s.tokens.Secret, u.ID, s.tokens.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(s.tokens.RefreshTTL)
	if err != nil {
		return nil, err
	}
	refresh.Exp = s.clock.Now().Add(s.tokens.RefreshTTL)
	if err := tx.StoreRefreshToken(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, err
	}
	return &Session{User: *u, Access: access, Refresh: refresh}, nil
}

// Register creates a customer account and signs it in.
func (s *AccountService) Register(ctx context.Context, in AccountInput) (*Session, error) {
	in.Role = model.RoleCustomer
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out *Session
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		u, err := s.createUser(ctx, tx, in)
		if err != nil {
			return err
		}
		out, err = s.issue(ctx, tx, u)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to register")
	}
	return out, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	var out *Session
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		u, err := tx.GetUserByEmail(ctx, normalizeEmail(email))
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.Unauthorized("invalid credentials")
		}
		if err != nil {
			return err
		}
		if !utils.VerifyPassword(u.PasswordHash, password) {
			return apperr.Unauthorized("invalid credentials")
		}
		if !u.IsActive {
			return apperr.Unauthorized("account is disabled")
		}
		out, err = s.issue(ctx, tx, u)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to sign in")
	}
	return out, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *AccountService) Refresh(ctx context.Context, raw string) (*Session, error) {
	hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	var out *Session
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		u, err := s.tokenOwner(ctx, tx, hash)
		if err != nil {
			return err
		}
		if err := tx.RevokeRefreshToken(ctx, hash, s.clock.Now()); err != nil {
			return err
		}
		out, err = s.issue(ctx, tx, u)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to refresh session")
	}
	return out, nil
}

// RefreshAccess issues a new access token without rotating the refresh token.
func (s *AccountService) RefreshAccess(ctx context.Context, raw string) (utils.AccessToken, error) {
	hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	var out utils.AccessToken
	err := s.store.View(ctx, func(tx repository.Tx) error {
		u, err := s.tokenOwner(ctx, tx, hash)
		if err != nil {
			return err
		}
		out, err = utils.NewAccessToken(s.tokens.Secret, u.ID, s.tokens.AccessTTL)
		return err
	})
	if err != nil {
		return utils.AccessToken{}, translate(err, "failed to refresh access token")
	}
	return out, nil
}

func (s *AccountService) tokenOwner(ctx context.Context, tx repository.Tx, hash string) (*model.User, error) {
	uid, err := tx.ValidateRefreshToken(ctx, hash, s.clock.Now())
	if err != nil {
		return nil, err
	}
	u, err := tx.GetUserByID(ctx, uid)
	if errors.Is(err, repository.ErrUserNotFound) || (err == nil && !u.IsActive) {
		return nil, repository.ErrInvalidToken
	}
	return u, err
}

// Logout revokes one refresh token when raw is given, otherwise every token
// of accountID. At least one of them must be set.
func (s *AccountService) Logout(ctx context.Context, accountID uint64, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" && accountID == 0 {
		return apperr.Unauthorized("refresh token or bearer token required")
	}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		now := s.clock.Now()
		if raw != "" {
			hash := utils.HashRefreshRaw(raw)
			if _, err := tx.ValidateRefreshToken(ctx, hash, now); err != nil {
				return err
			}
			return tx.RevokeRefreshToken(ctx, hash, now)
		}
		return tx.RevokeUserTokens(ctx, accountID, now)
	})
	return translate(err, "failed to sign out")
}

// CreateStaff provisions a STAFF or MANAGER account. Only managers and
// owners may call it, and only owners may create managers.
func (s *AccountService) CreateStaff(ctx context.Context, caller Caller, in AccountInput) (*model.User, error) {
	if err := caller.require(model.ManagementRoles...); err != nil {
		return nil, err
	}
	if in.Role != model.RoleStaff && in.Role != model.RoleManager {
		return nil, apperr.Validation("invalid role", apperr.FieldError{Field: "role", Message: "must be one of STAFF MANAGER"})
	}
	if in.Role == model.RoleManager && caller.Role != model.RoleOwner {
		return nil, apperr.Forbidden("only owners may create managers")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out *model.User
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		out, err = s.createUser(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to create staff account")
	}
	return out, nil
}

// BootstrapOwner creates the owner account on first start. It does nothing
// when the email is already registered.
func (s *AccountService) BootstrapOwner(ctx context.Context, email, password, name string) (bool, error) {
	in := AccountInput{Email: email, Password: password, Name: name, Role: model.RoleOwner}
	if strings.TrimSpace(in.Name) == "" {
		in.Name = "Owner"
	}
	if err := in.validate(); err != nil {
		return false, err
	}
	created := false
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		_, err := tx.GetUserByEmail(ctx, normalizeEmail(email))
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return err
		}
		if _, err := s.createUser(ctx, tx, in); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, translate(err, "failed to bootstrap owner")
	}
	return created, nil
}

func (s *AccountService) Me(ctx context.Context, accountID uint64) (*model.User, error) {
	var out *model.User
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.GetUserByID(ctx, accountID)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to load account")
	}
	return out, nil
}

// ResolveRole returns the current role of an account. Disabled or deleted
// accounts are unauthorized.
func (s *AccountService) ResolveRole(ctx context.Context, accountID uint64) (model.Role, error) {
	u, err := s.Me(ctx, accountID)
	if apperr.Is(err, apperr.KindNotFound) {
		return "", apperr.Unauthorized("account no longer exists")
	}
	if err != nil {
		return "", err
	}
	if !u.IsActive {
		return "", apperr.Unauthorized("account is disabled")
	}
	return u.Role, nil
}

// StaffUpdate edits a staff or manager account.
type StaffUpdate struct {
	Email string
	Name  string
	Role  model.Role
}

func (in StaffUpdate) validate() error {
	var fields []apperr.FieldError
	if _, err := mail.ParseAddress(normalizeEmail(in.Email)); err != nil {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "must be a valid email"})
	}
	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "required"})
	}
	if in.Role != model.RoleStaff && in.Role != model.RoleManager {
		fields = append(fields, apperr.FieldError{Field: "role", Message: "must be one of STAFF MANAGER"})
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid account", fields...)
	}
	return nil
}

// employee loads an active staff or manager account that caller may manage.
// Managers may only manage staff.
func employee(ctx context.Context, tx repository.Tx, caller Caller, id uint64) (*model.User, error) {
	u, err := tx.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive || (u.Role != model.RoleStaff && u.Role != model.RoleManager) {
		return nil, repository.ErrUserNotFound
	}
	if caller.Role == model.RoleManager && u.Role == model.RoleManager {
		return nil, apperr.Forbidden("managers may only manage staff")
	}
	return u, nil
}

// ListStaff returns active staff and manager accounts.
func (s *AccountService) ListStaff(ctx context.Context, caller Caller) ([]model.User, error) {
	if err := caller.require(model.ManagementRoles...); err != nil {
		return nil, err
	}
	var out []model.User
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListActiveUsers(ctx, model.RoleStaff, model.RoleManager)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to list staff")
	}
	return out, nil
}

// UpdateStaff edits a staff account. Only owners may change roles.
func (s *AccountService) UpdateStaff(ctx context.Context, caller Caller, id uint64, in StaffUpdate) (*model.User, error) {
	if err := caller.require(model.ManagementRoles...); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out *model.User
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		u, err := employee(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		if in.Role != u.Role && caller.Role != model.RoleOwner {
			return apperr.Forbidden("only owners may change roles")
		}
		u.Email = normalizeEmail(in.Email)
		u.Name = strings.TrimSpace(in.Name)
		u.Role = in.Role
		u.UpdatedAt = s.clock.Now()
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to update staff account")
	}
	return out, nil
}

// DeactivateStaff disables the given staff accounts and ends their sessions.
// Either every account is disabled or none is.
func (s *AccountService) DeactivateStaff(ctx context.Context, caller Caller, ids ...uint64) error {
	if err := caller.require(model.ManagementRoles...); err != nil {
		return err
	}
	if len(ids) == 0 {
		return apperr.Validation("invalid request", apperr.FieldError{Field: "ids", Message: "at least one account is required"})
	}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		now := s.clock.Now()
		for _, id := range ids {
			u, err := employee(ctx, tx, caller, id)
			if err != nil {
				return err
			}
			u.IsActive = false
			u.UpdatedAt = now
			if err := tx.UpdateUser(ctx, u); err != nil {
				return err
			}
			if err := tx.RevokeUserTokens(ctx, u.ID, now); err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err, "failed to deactivate staff account")
}

// ChangePassword replaces the account's password after checking the current
// one. Every refresh token of the account is revoked.
func (s *AccountService) ChangePassword(ctx context.Context, accountID uint64, current, next string) error {
	if accountID == 0 {
		return apperr.Unauthorized("authentication required")
	}
	if len(next) < minPasswordLen {
		return apperr.Validation("invalid password",
			apperr.FieldError{Field: "newPassword", Message: "must be at least 6 characters"})
	}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		u, err := tx.GetUserByID(ctx, accountID)
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.Unauthorized("account no longer exists")
		}
		if err != nil {
			return err
		}
		if !utils.VerifyPassword(u.PasswordHash, current) {
			return apperr.Unauthorized("current password is incorrect")
		}
		hash, err := utils.HashPassword(next, s.tokens.BcryptCost)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		u.PasswordHash = hash
		u.UpdatedAt = now
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		return tx.RevokeUserTokens(ctx, u.ID, now)
	})
	return translate(err, "failed to change password")
}
