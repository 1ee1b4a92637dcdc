package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kotoba-dev/kotoba/internal/domain"
	internal_errors "github.com/kotoba-dev/kotoba/internal/errors"
	"github.com/kotoba-dev/kotoba/internal/utils"
)

// parseIntParam parses an integer parameter from a string and returns a meaningful error
func parseIntParam(param string, paramName string) (int, error) {
	val, err := strconv.Atoi(param)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}
	return val, nil
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, &internal_errors.ErrorWithStatusCode{
			Message:    fmt.Sprintf("invalid %s: must be a UUID", name),
			StatusCode: http.StatusBadRequest,
		}
	}
	return id, nil
}

// parsePage reads the page query parameter, defaulting to 1.
func parsePage(r *http.Request) int {
	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if parsed, err := parseIntParam(pageStr, "page"); err == nil && parsed > 0 {
			page = parsed
		}
	}
	return page
}

// rejectionReason buckets an admission failure for the rejection counter.
func rejectionReason(err error) string {
	switch {
	case internal_errors.Is[*internal_errors.BannedError](err):
		return "banned"
	case internal_errors.Is[*internal_errors.ThreadClosedError](err):
		return "closed"
	case internal_errors.Is[*internal_errors.ThreadNotFoundError](err):
		return "not_found"
	case internal_errors.Is[*internal_errors.QuotaExceededError](err):
		return "quota"
	case internal_errors.Is[*internal_errors.UnsupportedTypeError](err):
		return "unsupported_type"
	case internal_errors.Is[*internal_errors.ValidationError](err):
		return "validation"
	default:
		return "other"
	}
}

// AttachmentPayload is attachment metadata submitted alongside a post when
// the client uploads files out of band and only references them here.
type AttachmentPayload struct {
	FileName  string `json:"file_name" validate:"required"`
	Extension string `json:"extension" validate:"required"`
	Hash      string `json:"hash"`
	SizeBytes int64  `json:"size_bytes" validate:"gt=0"`
	Width     *int   `json:"width,omitempty"`
	Height    *int   `json:"height,omitempty"`
}

func proposedFromPayload(payloads []AttachmentPayload) []domain.ProposedAttachment {
	proposed := make([]domain.ProposedAttachment, 0, len(payloads))
	for _, p := range payloads {
		proposed = append(proposed, domain.ProposedAttachment{
			FileName:  p.FileName,
			Extension: p.Extension,
			Hash:      p.Hash,
			SizeBytes: p.SizeBytes,
			Width:     p.Width,
			Height:    p.Height,
		})
	}
	return proposed
}

// decodePostBody reads a post submission from either a plain JSON body or a
// multipart form with a "json" field plus uploaded "attachments" files. For
// uploaded pictures the dimensions are read from the file header here, so
// the engine never has to touch file content.
func decodePostBody[T any](r *http.Request, body *T) ([]domain.ProposedAttachment, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return nil, utils.DecodeValidate(r.Body, body)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid multipart form", StatusCode: http.StatusBadRequest}
	}
	jsonPayload := r.FormValue("json")
	if jsonPayload == "" {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Missing json field in multipart form", StatusCode: http.StatusBadRequest}
	}
	if err := utils.DecodeValidate(strings.NewReader(jsonPayload), body); err != nil {
		return nil, err
	}

	var proposed []domain.ProposedAttachment
	for _, header := range r.MultipartForm.File["attachments"] {
		file, err := header.Open()
		if err != nil {
			return nil, &internal_errors.ErrorWithStatusCode{Message: "Can't read uploaded file", StatusCode: http.StatusBadRequest}
		}
		width, height := utils.ExtractImageDimensions(file)
		file.Close()

		proposed = append(proposed, domain.ProposedAttachment{
			FileName:  header.Filename,
			Extension: strings.TrimPrefix(filepath.Ext(header.Filename), "."),
			SizeBytes: header.Size,
			Width:     width,
			Height:    height,
		})
	}
	return proposed, nil
}
