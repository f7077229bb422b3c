package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// AuthHandler serves registration, sign-in and staff provisioning.
type AuthHandler struct {
	Accounts *service.AccountService
	Timeout  time.Duration
}

func NewAuthHandler(accounts *service.AccountService, timeout time.Duration) *AuthHandler {
	return &AuthHandler{Accounts: accounts, Timeout: timeout}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=100"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutReq struct {
	RefreshToken string `json:"refresh_token"`
}

type createUserReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=100"`
	Role     string `json:"role" validate:"required,oneof=STAFF MANAGER"`
}

type updateUserReq struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=100"`
	Role  string `json:"role" validate:"required,oneof=STAFF MANAGER"`
}

type deleteUsersReq struct {
	IDs []uint64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

type changePasswordReq struct {
	Password    string `json:"password" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID    uint64     `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  model.Role `json:"role"`
}

type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func toAuthResp(s *service.Session) authResp {
	return authResp{
		User:    toUserPart(s.User),
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp},
	}
}

// Register always creates a CUSTOMER and signs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	sess, err := h.Accounts.Register(ctx, service.AccountInput{Email: req.Email, Password: req.Password, Name: req.Name})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toAuthResp(sess))
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	sess, err := h.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAuthResp(sess))
}

// Refresh rotates the refresh token and returns a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	sess, err := h.Accounts.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAuthResp(sess))
}

// RefreshAccess issues only a new access token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	tok, err := h.Accounts.RefreshAccess(ctx, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"access": tokenPart{Token: tok.Token, Expires: tok.Exp}})
}

// Logout revokes the given refresh token. With only a bearer token it
// revokes every session of the account.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	if err := h.Accounts.Logout(ctx, middleware.AccountID(c), req.RefreshToken); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	u, err := h.Accounts.Me(ctx, middleware.AccountID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserPart(*u))
}

// CreateUser handles POST /v1/users for staff provisioning.
func (h *AuthHandler) CreateUser(c echo.Context) error {
	var req createUserReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	u, err := h.Accounts.CreateStaff(ctx, callerOf(c), service.AccountInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserPart(*u))
}

// ListUsers handles GET /v1/users.
func (h *AuthHandler) ListUsers(c echo.Context) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	users, err := h.Accounts.ListStaff(ctx, callerOf(c))
	if err != nil {
		return err
	}
	items := make([]userPart, 0, len(users))
	for _, u := range users {
		items = append(items, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AuthHandler) UpdateUser(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req updateUserReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	u, err := h.Accounts.UpdateStaff(ctx, callerOf(c), id, service.StaffUpdate{
		Email: req.Email,
		Name:  req.Name,
		Role:  model.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserPart(*u))
}

// DeleteUser deactivates one account.
func (h *AuthHandler) DeleteUser(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	if err := h.Accounts.DeactivateStaff(ctx, callerOf(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// DeleteUsers deactivates every account in the body's ids.
func (h *AuthHandler) DeleteUsers(c echo.Context) error {
	var req deleteUsersReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	if err := h.Accounts.DeactivateStaff(ctx, callerOf(c), req.IDs...); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	if err := h.Accounts.ChangePassword(ctx, middleware.AccountID(c), req.Password, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}
