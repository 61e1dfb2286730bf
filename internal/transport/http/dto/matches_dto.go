package dto

import "time"

type MatchItemResponse struct {
	ID          int64     `json:"id"`
	OtherUserID int64     `json:"other_user_id"`
	DisplayName string    `json:"display_name"`
	Age         int       `json:"age,omitempty"`
	City        string    `json:"city,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	LastMessage string    `json:"last_message,omitempty"`
	UnreadCount int       `json:"unread_count"`
	MatchedAt   time.Time `json:"matched_at"`
}

type MatchesResponse struct {
	Items []MatchItemResponse `json:"items"`
}
