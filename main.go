package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/MailPilot/MP-Backend/internal/auth"
	"github.com/MailPilot/MP-Backend/internal/config"
	"github.com/MailPilot/MP-Backend/internal/db"
	"github.com/MailPilot/MP-Backend/internal/gmail"
	"github.com/MailPilot/MP-Backend/internal/middleware"
	"github.com/MailPilot/MP-Backend/internal/webhooks"
	"github.com/go-chi/chi/v5"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	db.Connect(cfg.DatabaseURL)
	auth.Init()
	gmail.Init()
	webhooks.Init()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	authSvc := auth.NewService(db.DB, tokens, cfg.SessionValidity)
	authHandler := auth.NewHandler(authSvc)
	fetcher := auth.NewSessionInfo(authSvc)

	gmailClient := gmail.NewClient(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.CallbackURL)
	gmailSvc := gmail.NewService(gmailClient, db.DB, cfg.App.GmailScopes, cfg.Google.TopicName)
	gmailHandler := gmail.NewHandler(gmailSvc, authSvc, cfg.App.Upload)

	webhookHandler := webhooks.NewHandler(webhooks.NewStore(db.DB))

	guard := middleware.AuthGuard(tokens, fetcher)
	limiter := middleware.NewRateLimiter(5, 10)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Get("/", RootHandler)

	r.Route(cfg.APIPath(), func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "ok")
		})

		api.Group(func(public chi.Router) {
			public.Use(limiter.Middleware)
			public.Mount("/public", auth.PublicRoutes(authHandler))
			public.Mount("/webhooks", webhooks.Routes(webhookHandler))
		})

		api.Group(func(private chi.Router) {
			private.Use(guard)
			private.Mount("/auth", auth.Routes(authHandler))
			private.Mount("/emails", gmail.Routes(gmailHandler))
		})
	})

	fmt.Println("Server listening on port :" + cfg.Port + "...")
	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
