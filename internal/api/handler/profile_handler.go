package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/accounts-api/internal/api/metrics"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

// ProfileHandler serves /api/users/profile and /api/users/me.
type ProfileHandler struct {
	users ports.UserService
}

func NewProfileHandler(users ports.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// Get handles GET /api/users/profile/:id.
//
// @Summary      Get a user profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  apiResponse
// @Failure      401  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /api/users/profile/{id} [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	user, err := h.users.GetProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User profile found", user)
}

// Me handles GET /api/users/me.
func (h *ProfileHandler) Me(c echo.Context) error {
	sec, err := securityContext(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetProfile(c.Request().Context(), sec.Identity.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Current user", user)
}

// Update handles PUT /api/users/profile/:id. Only fullname and profilePicture
// can change; blank fields are ignored.
//
// @Summary      Update a user profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "User id"
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  apiResponse
// @Failure      403   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /api/users/profile/{id} [put]
func (h *ProfileHandler) Update(c echo.Context) error {
	sec, err := securityContext(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdateProfile(c.Request().Context(), sec, c.Param("id"), ports.UpdateProfileInput{
		Fullname:       req.Fullname,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User details updated successfully", user)
}

// Delete handles DELETE /api/users/profile/:id.
//
// @Summary      Delete a user account
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  apiResponse
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /api/users/profile/{id} [delete]
func (h *ProfileHandler) Delete(c echo.Context) error {
	sec, err := securityContext(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteProfile(c.Request().Context(), sec, c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User account was deleted successfully", nil)
}

// UploadPicture handles POST /api/users/profile/:id/picture.
//
// @Summary      Upload a profile picture
// @Tags         profile
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "User id"
// @Param        file  formData  file    true  "Image file"
// @Success      200   {object}  apiResponse
// @Failure      403   {object}  map[string]any
// @Failure      415   {object}  map[string]any
// @Router       /api/users/profile/{id}/picture [post]
func (h *ProfileHandler) UploadPicture(c echo.Context) error {
	sec, err := securityContext(c)
	if err != nil {
		return err
	}
	in, closeFn, err := formFile(c)
	if err != nil {
		return err
	}
	defer closeFn()

	info, err := h.users.UploadProfilePicture(c.Request().Context(), sec, c.Param("id"), in)
	if err != nil {
		return err
	}
	metrics.UploadsTotal.WithLabelValues("picture").Inc()
	return respond(c, http.StatusOK, "Profile picture uploaded successfully", info)
}
