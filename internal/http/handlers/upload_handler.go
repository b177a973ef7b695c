// File-upload HTTP handler.
//
// Accepts image files for embedding in knowledge-base articles (the editor
// posts multipart form data with the file under the "upload" field and
// expects a {"url": ...} response). Only png, jpg, jpeg, and gif extensions
// are accepted; anything else, including an empty filename, is rejected
// with 400. Stored files get a random prefix so uploads never collide or
// overwrite each other, and are served back under /uploads/.
package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-helpdesk-backend/internal/http/middleware"
)

// uploadField is the multipart form field carrying the file.
const uploadField = "upload"

// allowedImageExts is the extension allow-list for uploads.
var allowedImageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
}

// UploadResponse is returned on a successful upload.
type UploadResponse struct {
	// URL is the public path the stored file is served from.
	URL string `json:"url" example:"/uploads/5cbb1cb9_diagram.png"`
	// Filename is the stored name inside the upload directory.
	Filename string `json:"filename" example:"5cbb1cb9_diagram.png"`
}

// UploadFile godoc
// @ID          uploadFile
// @Summary     Upload an image
// @Description Accepts a multipart image (png, jpg, jpeg, gif) under the "upload" field and returns the URL it is served from.
// @Tags        Uploads
// @Accept      multipart/form-data
// @Produce     json
// @Param       upload formData file true "Image file"
// @Success     201 {object} handlers.UploadResponse
// @Failure     400 {object} handlers.ErrorResponse "Missing file, empty filename, or disallowed type"
// @Failure     500 {object} handlers.ErrorResponse "Storage failure"
// @Router      /uploads [post]
func (h *Handlers) UploadFile(c *gin.Context) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "multipart field 'upload' is required")
		return
	}

	name := filepath.Base(strings.TrimSpace(fh.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "empty filename")
		return
	}
	ext := strings.ToLower(filepath.Ext(name))
	if _, okExt := allowedImageExts[ext]; !okExt {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "file type not allowed (png, jpg, jpeg, gif)")
		return
	}

	// Random prefix: uploads never collide, and a hostile filename cannot
	// overwrite an earlier upload.
	stored := uuid.NewString()[:8] + "_" + name
	dst := filepath.Join(h.uploadDir, stored)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Str("path", dst).Msg("save upload")
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "could not store file")
		return
	}

	ok(c, http.StatusCreated, UploadResponse{
		URL:      "/uploads/" + stored,
		Filename: stored,
	})
}
