package dto

type InteractionRequest struct {
	TargetID int64  `json:"target_id"`
	Kind     string `json:"kind"`
}

type InteractionResponse struct {
	OK           bool  `json:"ok"`
	Matched      bool  `json:"matched"`
	MatchCreated bool  `json:"match_created"`
	MatchID      int64 `json:"match_id,omitempty"`
}
