package engine

import (
	"fmt"
	"strings"

	"github.com/kotoba-dev/kotoba/internal/domain"
	internal_errors "github.com/kotoba-dev/kotoba/internal/errors"
)

// AttachmentLimits is the active quota and type configuration. Extension
// sets must be disjoint so every extension classifies to exactly one kind.
type AttachmentLimits struct {
	MaxCountPerPost int
	MaxBytesPerPost int64

	AudioExtensions    []string
	PictureExtensions  []string
	VideoExtensions    []string
	DocumentExtensions []string
}

type AttachmentValidator struct {
	limits AttachmentLimits
	kinds  map[string]domain.MediaKind
}

// NewAttachmentValidator builds the extension-to-kind table. Returns an
// error if an extension appears in more than one configured set.
func NewAttachmentValidator(limits AttachmentLimits) (*AttachmentValidator, error) {
	kinds := make(map[string]domain.MediaKind)
	sets := []struct {
		kind       domain.MediaKind
		extensions []string
	}{
		{domain.MediaAudio, limits.AudioExtensions},
		{domain.MediaPicture, limits.PictureExtensions},
		{domain.MediaVideo, limits.VideoExtensions},
		{domain.MediaDocument, limits.DocumentExtensions},
	}
	for _, set := range sets {
		for _, ext := range set.extensions {
			ext = strings.ToLower(strings.TrimPrefix(ext, "."))
			if existing, ok := kinds[ext]; ok && existing != set.kind {
				return nil, fmt.Errorf("extension %q configured as both %s and %s", ext, existing, set.kind)
			}
			kinds[ext] = set.kind
		}
	}
	return &AttachmentValidator{limits: limits, kinds: kinds}, nil
}

// Validate checks the proposed attachments against the quota and classifies
// each one by extension. Rules run in order and the first failure wins:
// count quota, byte quota, then per-attachment type. No partial acceptance;
// either every attachment is valid or the whole set is rejected.
//
// countSoFar is the number of attachments the post already owns, so the
// count quota holds across amendments as well as initial submission.
func (v *AttachmentValidator) Validate(proposed []domain.ProposedAttachment, countSoFar int) ([]domain.Attachment, error) {
	total := len(proposed) + countSoFar
	if total > v.limits.MaxCountPerPost {
		return nil, &internal_errors.QuotaExceededError{
			Kind:   internal_errors.QuotaCount,
			Limit:  int64(v.limits.MaxCountPerPost),
			Actual: int64(total),
		}
	}

	var totalBytes int64
	for _, p := range proposed {
		totalBytes += p.SizeBytes
	}
	if totalBytes > v.limits.MaxBytesPerPost {
		return nil, &internal_errors.QuotaExceededError{
			Kind:   internal_errors.QuotaBytes,
			Limit:  v.limits.MaxBytesPerPost,
			Actual: totalBytes,
		}
	}

	classified := make([]domain.Attachment, 0, len(proposed))
	for _, p := range proposed {
		ext := strings.ToLower(strings.TrimPrefix(p.Extension, "."))
		kind, ok := v.kinds[ext]
		if !ok {
			return nil, &internal_errors.UnsupportedTypeError{Extension: p.Extension}
		}
		att := domain.Attachment{
			Kind:          kind,
			FileName:      p.FileName,
			FileExtension: ext,
			Hash:          p.Hash,
			SizeBytes:     p.SizeBytes,
		}
		if kind == domain.MediaPicture {
			att.Width = p.Width
			att.Height = p.Height
		}
		classified = append(classified, att)
	}
	return classified, nil
}
