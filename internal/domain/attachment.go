package domain

// MediaKind classifies an attachment by its file extension.
type MediaKind string

const (
	MediaAudio    MediaKind = "audio"
	MediaPicture  MediaKind = "picture"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

// ProposedAttachment is an attachment as submitted, before classification.
// Width/Height are pre-computed by the upload boundary for pictures; the
// engine never decodes file content.
type ProposedAttachment struct {
	FileName  string
	Extension string
	Hash      string
	SizeBytes int64
	Width     *int
	Height    *int
}

// Attachment is a classified attachment ready for persistence.
type Attachment struct {
	Id            AttachmentId
	PostId        PostId
	Kind          MediaKind
	FileName      string
	FileExtension string
	Hash          string
	SizeBytes     int64

	// Picture only
	Width  *int
	Height *int
}
