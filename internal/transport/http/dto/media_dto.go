package dto

import "time"

type AttachmentResponse struct {
	ObjectKey string    `json:"object_key"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
