package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/next-connect/next-connect/internal/core/domain"
	"github.com/next-connect/next-connect/internal/core/ports"
	"github.com/next-connect/next-connect/internal/pkg/metrics"
	"github.com/next-connect/next-connect/internal/session"
)

// MsgSignedOut confirms a signout.
const MsgSignedOut = "You are now signed out."

// SessionManager establishes and clears the session bound to a request.
type SessionManager interface {
	Login(c echo.Context, user *domain.User) error
	Logout(c echo.Context)
}

type AuthHandler struct {
	signup   ports.Strategy
	signin   ports.Strategy
	sessions SessionManager
}

func NewAuthHandler(signup, signin ports.Strategy, sessions SessionManager) *AuthHandler {
	return &AuthHandler{signup: signup, signin: signin, sessions: sessions}
}

type credentialsRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=5"`
}

func (r credentialsRequest) credentials() domain.Credentials {
	return domain.Credentials{Email: r.Email, Password: r.Password}
}

type messageResponse struct {
	Message string `json:"message"`
}

// Signup creates an account and signs it in.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Email and password"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  ValidationResponse
// @Failure      500   {object}  messageResponse
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	if err := c.Validate(&req); err != nil {
		var ve domain.ValidationErrors
		if errors.As(err, &ve) {
			metrics.AuthAttemptsTotal.WithLabelValues(h.signup.Name(), metrics.ResultInvalid).Inc()
			return c.JSON(http.StatusUnprocessableEntity, NewValidationResponse(ve))
		}
		return err
	}

	// An existing account is reported with 500, the documented contract.
	return h.authenticate(c, h.signup, req.credentials(), http.StatusInternalServerError)
}

// Signin authenticates an existing account.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Email and password"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  messageResponse
// @Failure      500   {object}  map[string]string
// @Router       /api/auth/signin [post]
func (h *AuthHandler) Signin(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	return h.authenticate(c, h.signin, req.credentials(), http.StatusBadRequest)
}

// Signout clears the session user and the cookie.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/auth/signout [get]
func (h *AuthHandler) Signout(c echo.Context) error {
	h.sessions.Logout(c)
	metrics.SignoutsTotal.Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: MsgSignedOut})
}

// Me returns the signed-in user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.User
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := session.CurrentUser(c)
	if !ok {
		return domain.ErrUnauthenticated
	}
	return c.JSON(http.StatusOK, user)
}

// authenticate runs strategy and maps its result: identity → 200 with a new
// session, message → rejectStatus, error → central error handler.
func (h *AuthHandler) authenticate(c echo.Context, strategy ports.Strategy, creds domain.Credentials, rejectStatus int) error {
	res := strategy.Attempt(c.Request().Context(), creds)

	switch {
	case res.Err != nil:
		metrics.AuthAttemptsTotal.WithLabelValues(strategy.Name(), metrics.ResultError).Inc()
		return fmt.Errorf("%s: %w", strategy.Name(), res.Err)
	case !res.OK():
		metrics.AuthAttemptsTotal.WithLabelValues(strategy.Name(), metrics.ResultRejected).Inc()
		return c.JSON(rejectStatus, messageResponse{Message: res.Message})
	}

	if err := h.sessions.Login(c, res.User); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues(strategy.Name(), metrics.ResultError).Inc()
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues(strategy.Name(), metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusOK, res.User)
}
