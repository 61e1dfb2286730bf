package dto

import "time"

type IncomingLikerResponse struct {
	LikerUserID int64     `json:"liker_user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	Age         int       `json:"age,omitempty"`
	City        string    `json:"city,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Revealed    bool      `json:"revealed"`
	LikedAt     time.Time `json:"liked_at"`
}

type IncomingLikesResponse struct {
	TotalCount int                     `json:"total_count"`
	Items      []IncomingLikerResponse `json:"items"`
}

type RevealLikerRequest struct {
	LikerID int64 `json:"liker_id"`
}

type RevealLikerResponse struct {
	OK    bool                  `json:"ok"`
	Liker IncomingLikerResponse `json:"liker"`
}
