package handler

import (
	"Parlor/internal/pkg/response"
	"Parlor/internal/service"
	log "log/slog"

	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	mediaSvc service.MediaService
}

func NewMediaHandler(mediaSvc service.MediaService) *MediaHandler {
	return &MediaHandler{mediaSvc: mediaSvc}
}

// Upload multipart 字段 file，可选 kind=image|video|file
func (s *MediaHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	defer func() { _ = reader.Close() }()

	res, err := s.mediaSvc.Upload(c.Request.Context(), file.Filename, file.Size, reader, c.PostForm("kind"))
	if err != nil {
		response.Error(c, err)
		return
	}

	log.InfoContext(c.Request.Context(), "media upload success", "url", res.URL, "type", res.MimeType, "size", res.Size)
	response.Success(c, res)
}
