package ws

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	authsvc "github.com/ViceKink/vice-kink-backend/internal/services/auth"
)

type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, accessToken string) (authsvc.AccessClaims, error)
}

// ServeWS upgrades the connection and attaches it to the hub. Browsers
// cannot set headers on websocket dials, so auth rides the token query
// parameter.
func ServeWS(hub *Hub, tokens TokenValidator, reads ReadHandler, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		claims, err := tokens.ValidateAccessToken(r.Context(), tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			logger.Warn("ws accept failed", zap.Error(err))
			return
		}

		client := NewClient(hub, conn, claims.UserID, reads, logger)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
