package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ViceKink/vice-kink-backend/internal/config"
	adssvc "github.com/ViceKink/vice-kink-backend/internal/services/ads"
	authsvc "github.com/ViceKink/vice-kink-backend/internal/services/auth"
	chatsvc "github.com/ViceKink/vice-kink-backend/internal/services/chat"
	coinssvc "github.com/ViceKink/vice-kink-backend/internal/services/coins"
	interactionsvc "github.com/ViceKink/vice-kink-backend/internal/services/interactions"
	likessvc "github.com/ViceKink/vice-kink-backend/internal/services/likes"
	matchessvc "github.com/ViceKink/vice-kink-backend/internal/services/matches"
	mediasvc "github.com/ViceKink/vice-kink-backend/internal/services/media"
	"github.com/ViceKink/vice-kink-backend/internal/transport/http/handlers"
	"github.com/ViceKink/vice-kink-backend/internal/transport/ws"
)

type Dependencies struct {
	AuthService        *authsvc.Service
	InteractionService *interactionsvc.Service
	LikeService        *likessvc.Service
	MatchService       *matchessvc.Service
	CoinService        *coinssvc.Service
	AdsService         *adssvc.Service
	ChatService        *chatsvc.Service
	MediaService       *mediasvc.Service
	Hub                *ws.Hub
	Logger             *zap.Logger
	Config             config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	healthHandler := handlers.NewHealthHandler()
	interactionHandler := handlers.NewInteractionHandler(deps.InteractionService)
	likesHandler := handlers.NewLikesHandler(deps.LikeService)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService)
	coinsHandler := handlers.NewCoinsHandler(deps.CoinService)
	adsHandler := handlers.NewAdsHandler(deps.AdsService)
	chatHandler := handlers.NewChatHandler(deps.ChatService)
	mediaHandler := handlers.NewMediaHandler(deps.MediaService)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	if deps.Hub != nil {
		r.Get("/ws", ws.ServeWS(deps.Hub, deps.AuthService, deps.ChatService, deps.Logger))
	}

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMW).Post("/logout", authHandler.Logout)
		r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMW)

		r.Post("/interactions", interactionHandler.Handle)

		r.Get("/likes/incoming", likesHandler.Incoming)
		r.Post("/likes/reveal", likesHandler.Reveal)

		r.Get("/matches", matchesHandler.Handle)

		r.Get("/coins", coinsHandler.Snapshot)
		r.Post("/coins/ad-watch", coinsHandler.AdWatch)
		r.Post("/coins/purchase", coinsHandler.Purchase)

		r.Post("/ads/rewarded", adsHandler.Rewarded)

		r.Post("/messages", chatHandler.Send)
		r.Post("/messages/{id}/reveal-image", chatHandler.RevealImage)
		r.Get("/conversations/{user_id}/messages", chatHandler.Conversation)
		r.Post("/conversations/{user_id}/read", chatHandler.MarkRead)

		r.Post("/media/attachment", mediaHandler.UploadAttachment)
	})
}
