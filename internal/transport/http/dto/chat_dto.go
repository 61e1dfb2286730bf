package dto

import "time"

type SendMessageRequest struct {
	ReceiverID  int64  `json:"receiver_id"`
	Content     string `json:"content"`
	ImageURL    string `json:"image_url,omitempty"`
	ClientNonce string `json:"client_nonce"`
}

type MessageResponse struct {
	ID              string    `json:"id"`
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

type SendMessageResponse struct {
	OK      bool            `json:"ok"`
	Created bool            `json:"created"`
	Message MessageResponse `json:"message"`
}

type ConversationResponse struct {
	Items []MessageResponse `json:"items"`
}

type MarkReadResponse struct {
	OK    bool  `json:"ok"`
	Count int64 `json:"count"`
}

type RevealImageResponse struct {
	OK      bool            `json:"ok"`
	Message MessageResponse `json:"message"`
}
