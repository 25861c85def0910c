package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hourbank/timebank/internal/core/ports"
)

// UserHandler serves the member directory.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// List handles GET /users.
//
// @Summary      Member directory
// @Tags         users
// @Produce      json
// @Param        field  query     string  false  "Filter by field"  Enums(tech, education, music, healthcare, cooking, babysitting, home-maintenance)
// @Param        city   query     string  false  "Filter by city"
// @Param        page   query     int     false  "Page number (1-based)"
// @Param        limit  query     int     false  "Page size (max 100)"
// @Success      200    {object}  successEnvelope{data=memberListData}
// @Failure      400    {object}  errorEnvelope
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	page, err := intQuery(c, "page")
	if err != nil {
		return err
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		return err
	}

	res, err := h.service.ListUsers(c.Request().Context(), ports.ListUsersInput{
		Field: c.QueryParam("field"),
		City:  c.QueryParam("city"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toMemberListData(res))
}

// Get handles GET /users/:id.
//
// @Summary      Member profile
// @Description  Public profile with the member's sent and received orders and the reviews about them.
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  successEnvelope{data=profileData}
// @Failure      404  {object}  errorEnvelope
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	profile, err := h.service.GetProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toProfileData(profile))
}

// Update handles PATCH /users/:id for admins.
//
// @Summary      Edit a user (admin)
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                  true  "User id"
// @Param        body  body      adminUpdateUserRequest  true  "Fields to change"
// @Success      200   {object}  successEnvelope{data=userData}
// @Failure      400   {object}  errorEnvelope
// @Failure      403   {object}  errorEnvelope
// @Failure      404   {object}  errorEnvelope
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	var req adminUpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateUser(c.Request().Context(), c.Param("id"), ports.ProfileUpdate{
		Name:  sanitizePtr(req.Name),
		Bio:   sanitizePtr(req.Bio),
		City:  sanitizePtr(req.City),
		Field: req.Field,
		Role:  req.Role,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, userData{User: toUserResponse(user)})
}

// Delete handles DELETE /users/:id for admins.
//
// @Summary      Delete a user (admin)
// @Tags         users
// @Security     BearerAuth
// @Param        id   path  string  true  "User id"
// @Success      204
// @Failure      403  {object}  errorEnvelope
// @Failure      404  {object}  errorEnvelope
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
