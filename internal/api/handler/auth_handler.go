package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hourbank/timebank/internal/core/domain"
	"github.com/hourbank/timebank/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup creates a new user account. Role and credit cannot be chosen by the
// client.
//
// @Summary      Sign up
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  successEnvelope{data=authData}
// @Failure      400   {object}  errorEnvelope
// @Failure      409   {object}  errorEnvelope
// @Router       /users/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Bio:             sanitize(req.Bio),
		City:            sanitize(req.City),
		Field:           sanitize(req.Field),
	})
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, authData{Token: token, User: toUserResponse(user)})
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Log in
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  successEnvelope{data=authData}
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Router       /users/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, authData{Token: token, User: toUserResponse(user)})
}

// Me returns the caller's own profile, including their credit balance.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  successEnvelope{data=userData}
// @Failure      401  {object}  errorEnvelope
// @Router       /users/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, userData{User: toUserResponse(user)})
}

// UpdateMe edits the caller's name, bio, city or field.
//
// @Summary      Update profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateMeRequest  true  "Fields to change"
// @Success      200   {object}  successEnvelope{data=userData}
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Router       /users/me [patch]
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	var req updateMeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Password != nil || req.PasswordConfirm != nil {
		return domain.ErrPasswordNotEditable
	}

	user, err := h.authService.UpdateMe(c.Request().Context(), id, ports.ProfileUpdate{
		Name:  sanitizePtr(req.Name),
		Bio:   sanitizePtr(req.Bio),
		City:  sanitizePtr(req.City),
		Field: sanitizePtr(req.Field),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, userData{User: toUserResponse(user)})
}

// DeactivateMe marks the caller's account inactive.
//
// @Summary      Deactivate account
// @Tags         users
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorEnvelope
// @Router       /users/me [delete]
func (h *AuthHandler) DeactivateMe(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	if err := h.authService.Deactivate(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdatePassword changes the caller's password and returns a fresh token.
// Tokens issued before the change stop working.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updatePasswordRequest  true  "Current and new password"
// @Success      200   {object}  successEnvelope{data=authData}
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Router       /users/update-password [patch]
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	var req updatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.UpdatePassword(c.Request().Context(), ports.UpdatePasswordInput{
		UserID:          id,
		CurrentPassword: req.CurrentPassword,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, authData{Token: token, User: toUserResponse(user)})
}

// ForgotPassword mails a reset link valid for ten minutes.
//
// @Summary      Request a password reset
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  successEnvelope{data=messageData}
// @Failure      400   {object}  errorEnvelope
// @Failure      404   {object}  errorEnvelope
// @Failure      500   {object}  errorEnvelope
// @Router       /users/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authService.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return respond(c, http.StatusOK, messageData{Message: "please check your email"})
}

// ResetPassword sets a new password with the token from the reset mail.
//
// @Summary      Reset password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        token  path      string                true  "Reset token from the email"
// @Param        body   body      resetPasswordRequest  true  "New password"
// @Success      200    {object}  successEnvelope{data=authData}
// @Failure      400    {object}  errorEnvelope
// @Router       /users/reset-password/{token} [patch]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.ResetPassword(c.Request().Context(), ports.ResetPasswordInput{
		Token:           c.Param("token"),
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, authData{Token: token, User: toUserResponse(user)})
}
