package server

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"videorelay/internal/media"
	"videorelay/internal/service"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "video-relay",
		"uptime":  time.Since(s.startTime).String(),
	})
}

// handleUploadVideo takes the person name from the personName form field.
// When the field is absent, the legacy capture filename pattern is tried and,
// if it matches, the original filename is forwarded unchanged.
func (s *Server) handleUploadVideo(c *gin.Context) {
	up, ok := s.receiveUpload(c)
	if !ok {
		return
	}

	opts, ok := s.uploadOptionsFromForm(c, up)
	if !ok {
		return
	}

	s.runUpload(c, up, opts)
}

// handleUploadVideoNamed takes the person name from the URL path.
func (s *Server) handleUploadVideoNamed(c *gin.Context) {
	personName := c.Param("personName")
	if decoded, err := url.PathUnescape(personName); err == nil {
		personName = decoded
	}

	up, ok := s.receiveUpload(c)
	if !ok {
		return
	}

	s.runUpload(c, up, service.UploadOptions{
		PersonName: personName,
		MakePublic: s.cfg.PublicRead,
	})
}

// handleUploadVideoChunked rejects large files until resumable uploads exist;
// smaller ones follow the normal path.
func (s *Server) handleUploadVideoChunked(c *gin.Context) {
	up, ok := s.receiveUpload(c)
	if !ok {
		return
	}

	if up.Size >= s.cfg.ChunkedThreshold {
		s.discardUpload(up)
		s.countUpload("unimplemented")
		c.JSON(http.StatusNotImplemented, errorResponse{
			Error:   "Chunked upload not implemented",
			Details: "files of 50MB or more are not supported on this route yet, use /upload-video",
		})
		return
	}

	opts, ok := s.uploadOptionsFromForm(c, up)
	if !ok {
		return
	}

	s.runUpload(c, up, opts)
}

// uploadOptionsFromForm reads the person name from the form, falling back to
// the legacy capture filename pattern. In the fallback mode the original
// filename is kept as the stored name. On failure the response has already
// been written and the upload discarded.
func (s *Server) uploadOptionsFromForm(c *gin.Context, up *service.IncomingUpload) (service.UploadOptions, bool) {
	opts := service.UploadOptions{
		PersonName: c.PostForm("personName"),
		MakePublic: s.cfg.PublicRead,
	}
	if strings.TrimSpace(opts.PersonName) == "" {
		parsed, matched := media.PersonNameFromCapture(up.Filename)
		if !matched {
			s.discardUpload(up)
			s.respondUploadClientError(c, "No person name provided", nil)
			return opts, false
		}
		opts.PersonName = parsed
		opts.KeepOriginalName = true
	}
	return opts, true
}

// discardUpload releases an upload's temp resource on paths that never hand
// it to the pipeline, logging like the pipeline does when cleanup fails.
func (s *Server) discardUpload(up *service.IncomingUpload) {
	if err := up.Discard(); err != nil {
		s.logger.Warn("failed to discard buffered upload",
			zap.String("filename", up.Filename), zap.Error(err))
	}
}

// handleFixVideoMime retroactively corrects the stored content type of an
// already uploaded object. No bytes are transferred.
func (s *Server) handleFixVideoMime(c *gin.Context) {
	fileID := strings.TrimPrefix(c.Param("fileId"), "/")
	if decoded, err := url.PathUnescape(fileID); err == nil {
		fileID = decoded
	}

	var body struct {
		FileName string `json:"fileName"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.FileName) == "" {
		s.respondClientError(c, "fileName is required", nil)
		return
	}

	ref, err := s.relay.FixContentType(c.Request.Context(), fileID, body.FileName)
	if err != nil {
		var unsupported *media.UnsupportedFormatError
		if errors.As(err, &unsupported) {
			s.respondClientError(c, "Unsupported video format", err)
			return
		}
		s.respondServerError(c, "Failed to update video mime type", err)
		return
	}

	c.JSON(http.StatusOK, fixResponse{
		Success:  true,
		FileName: body.FileName,
		MimeType: ref.ContentType,
		Link:     ref.Link,
	})
}

// receiveUpload pulls the multipart video field into a request-owned temp
// file. On failure it has already written the response.
func (s *Server) receiveUpload(c *gin.Context) (*service.IncomingUpload, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	file, header, err := c.Request.FormFile("video")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondUploadClientError(c, "Video file exceeds the upload size limit", err)
			return nil, false
		}
		s.respondUploadClientError(c, "No video file uploaded", err)
		return nil, false
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "video-relay-*")
	if err != nil {
		s.respondUploadServerError(c, "Failed to buffer upload", err)
		return nil, false
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondUploadClientError(c, "Video file exceeds the upload size limit", err)
			return nil, false
		}
		s.respondUploadServerError(c, "Failed to buffer upload", err)
		return nil, false
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		s.respondUploadServerError(c, "Failed to buffer upload", err)
		return nil, false
	}

	declaredType := header.Header.Get("Content-Type")
	return service.IncomingUploadFromFile(tmp, header.Filename, declaredType, header.Size), true
}

// runUpload drives the pipeline and writes the response. The pipeline owns
// the temp resource from here on.
func (s *Server) runUpload(c *gin.Context, up *service.IncomingUpload, opts service.UploadOptions) {
	start := time.Now()

	result, err := s.relay.Upload(c.Request.Context(), up, opts)
	if err != nil {
		s.respondUploadError(c, err)
		return
	}

	s.metrics.UploadsTotal.WithLabelValues("success").Inc()
	s.metrics.UploadBytes.Add(float64(result.Object.Size))
	s.metrics.UploadDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("video uploaded",
		zap.String("file_id", result.Object.ID),
		zap.String("file_name", result.Object.Name),
		zap.Int64("size", result.Object.Size),
		zap.String("person", result.PersonName),
	)

	c.JSON(http.StatusOK, uploadResponse{
		Success:    true,
		FileName:   result.Object.Name,
		Link:       result.Object.Link,
		FileID:     result.Object.ID,
		MimeType:   result.Object.ContentType,
		FileSize:   result.Object.Size,
		PersonName: result.PersonName,
		UploadDate: result.UploadedAt.UTC().Format(time.RFC3339),
	})
}
