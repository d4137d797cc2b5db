package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/accounts-api/internal/core/ports"
)

// AdminHandler serves /api/admin.
type AdminHandler struct {
	users ports.UserService
}

func NewAdminHandler(users ports.UserService) *AdminHandler {
	return &AdminHandler{users: users}
}

// SetRoles handles PUT /api/admin/users/:id/roles.
//
// @Summary      Replace a user's roles
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "User id"
// @Param        body  body      setRolesRequest  true  "New role set"
// @Success      200   {object}  apiResponse
// @Failure      403   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /api/admin/users/{id}/roles [put]
func (h *AdminHandler) SetRoles(c echo.Context) error {
	sec, err := securityContext(c)
	if err != nil {
		return err
	}
	var req setRolesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.SetRoles(c.Request().Context(), sec, c.Param("id"), req.toRoles())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Roles updated", user)
}
