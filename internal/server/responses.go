package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"videorelay/internal/media"
	"videorelay/internal/service"
)

type uploadResponse struct {
	Success    bool   `json:"success"`
	FileName   string `json:"fileName"`
	Link       string `json:"link"`
	FileID     string `json:"fileId,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	FileSize   int64  `json:"fileSize,omitempty"`
	PersonName string `json:"personName,omitempty"`
	UploadDate string `json:"uploadDate,omitempty"`
}

type fixResponse struct {
	Success  bool   `json:"success"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType,omitempty"`
	Link     string `json:"link"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respondUploadError maps pipeline errors onto the HTTP taxonomy: client
// input problems are 400, everything downstream is 500.
func (s *Server) respondUploadError(c *gin.Context, err error) {
	var unsupported *media.UnsupportedFormatError
	switch {
	case errors.Is(err, service.ErrNoVideoFile):
		s.respondUploadClientError(c, "No video file uploaded", err)
	case errors.Is(err, media.ErrMissingPersonName):
		s.respondUploadClientError(c, "No person name provided", err)
	case errors.As(err, &unsupported):
		s.respondUploadClientError(c, "Unsupported video format", err)
	default:
		s.respondUploadServerError(c, "Failed to upload video", err)
	}
}

// countUpload records an upload outcome. Only the upload routes feed this
// counter; other routes report errors without touching it.
func (s *Server) countUpload(outcome string) {
	if s.metrics != nil {
		s.metrics.UploadsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) respondUploadClientError(c *gin.Context, message string, err error) {
	s.countUpload("client_error")
	s.respondClientError(c, message, err)
}

func (s *Server) respondUploadServerError(c *gin.Context, message string, err error) {
	s.countUpload("server_error")
	s.respondServerError(c, message, err)
}

func (s *Server) respondClientError(c *gin.Context, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Details = s.errorDetails(err)
	}
	c.JSON(http.StatusBadRequest, resp)
}

func (s *Server) respondServerError(c *gin.Context, message string, err error) {
	c.Error(err)
	c.JSON(http.StatusInternalServerError, errorResponse{
		Error:   message,
		Details: s.errorDetails(err),
	})
}

// errorDetails hides internals outside development.
func (s *Server) errorDetails(err error) string {
	if s.cfg.IsDev() {
		return err.Error()
	}
	return "internal server error"
}
