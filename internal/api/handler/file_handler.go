package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/accounts-api/internal/api/metrics"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

// FileHandler serves /api/files.
type FileHandler struct {
	users ports.UserService
}

func NewFileHandler(users ports.UserService) *FileHandler {
	return &FileHandler{users: users}
}

// Upload handles POST /api/files/upload.
//
// @Summary      Upload a file
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "File to store"
// @Success      200   {object}  apiResponse
// @Failure      400   {object}  map[string]any
// @Router       /api/files/upload [post]
func (h *FileHandler) Upload(c echo.Context) error {
	sec, err := securityContext(c)
	if err != nil {
		return err
	}
	in, closeFn, err := formFile(c)
	if err != nil {
		return err
	}
	defer closeFn()

	info, err := h.users.UploadFile(c.Request().Context(), sec, in)
	if err != nil {
		return err
	}
	metrics.UploadsTotal.WithLabelValues("file").Inc()
	return respond(c, http.StatusOK, "File uploaded successfully", info)
}

// formFile opens the multipart "file" field.
func formFile(c echo.Context) (ports.UploadInput, func(), error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return ports.UploadInput{}, nil, echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return ports.UploadInput{}, nil, echo.NewHTTPError(http.StatusBadRequest, "unreadable upload").SetInternal(err)
	}
	return ports.UploadInput{Filename: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}
