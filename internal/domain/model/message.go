package model

import (
	"time"

	"github.com/google/uuid"
)

// ImageOnlyContent is stored as the content of a pure-image message. The
// messages table carries a non-null content column, so an image-only send
// keeps this single-space sentinel instead of an empty string.
const ImageOnlyContent = " "

type Message struct {
	ID              uuid.UUID `json:"id"`
	SenderID        int64     `json:"sender_id"`
	ReceiverID      int64     `json:"receiver_id"`
	Content         string    `json:"content"`
	ImageURL        string    `json:"image_url,omitempty"`
	HasAttachment   bool      `json:"has_attachment"`
	IsImageRevealed bool      `json:"is_image_revealed"`
	Read            bool      `json:"read"`
	ClientNonce     string    `json:"client_nonce,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasImage survives URL masking: a hidden attachment still reports true so
// clients can render the locked placeholder.
func (m Message) HasImage() bool {
	return m.HasAttachment || m.ImageURL != ""
}

// ImageVisibleTo reports whether the image attachment may be rendered for
// the given viewer. A sender always sees their own attachment.
func (m Message) ImageVisibleTo(viewerID int64) bool {
	if !m.HasImage() {
		return false
	}
	return m.SenderID == viewerID || m.IsImageRevealed
}
