package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hanghub/internal/config"
	"hanghub/internal/database"
	"hanghub/internal/handlers"
	"hanghub/internal/repository"
	"hanghub/internal/security"
	"hanghub/internal/service"
	"hanghub/internal/session"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.EnsureSchema(); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	log.Println("Schema is up to date")

	// Initialize repositories
	parentRepo := repository.NewParentRepository(db)
	userRepo := repository.NewUserRepository(db)
	hangRepo := repository.NewHangRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	qrInviteRepo := repository.NewQRInviteRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Outbound email. With no sender address configured, approval mails are
	// logged instead of sent.
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	if !emailService.IsEnabled() {
		log.Println("Email sending disabled (SES_FROM_EMAIL not set)")
	}

	// Initialize services
	authService := service.NewAuthService(parentRepo, userRepo, emailService)
	approvalService := service.NewApprovalService(db, hangRepo, tokenRepo, userRepo, parentRepo, activityRepo, emailService)
	hangService := service.NewHangService(db, hangRepo, userRepo, friendRepo, activityRepo, approvalService)
	friendService := service.NewFriendService(db, friendRepo, userRepo, activityRepo)
	qrInviteService := service.NewQRInviteService(db, qrInviteRepo, userRepo, parentRepo, friendRepo, hangRepo, emailService)
	activityService := service.NewActivityService(activityRepo)

	// Sessions and request protection
	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionDuration)
	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	limiter := security.NewRateLimiter(10, time.Minute)

	oauthProviders := map[string]*handlers.OAuthProvider{
		"google": handlers.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectBaseURL),
	}

	// Initialize handlers
	middleware := handlers.NewMiddleware(sessions, limiter, csrf)
	authHandler := handlers.NewAuthHandler(authService, sessions, csrf, oauthProviders)
	hangHandler := handlers.NewHangHandler(hangService, activityService)
	approvalHandler := handlers.NewApprovalHandler(approvalService)
	friendHandler := handlers.NewFriendHandler(friendService)
	qrInviteHandler := handlers.NewQRInviteHandler(qrInviteService, sessions)

	// Setup routes
	mux := http.NewServeMux()

	// Public auth routes
	mux.HandleFunc("POST /auth/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /auth/kid-login", middleware.RateLimit(authHandler.KidLogin))
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /auth/verify", authHandler.VerifyEmail)
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	// Emailed approval links; possession of the token is the credential
	mux.HandleFunc("GET /approve/{token}", middleware.RateLimit(approvalHandler.Redeem))

	// QR onboarding pipeline, also token-gated
	mux.HandleFunc("GET /invite/signup", middleware.RateLimit(qrInviteHandler.SignupDetails))
	mux.HandleFunc("POST /invite/signup", middleware.RateLimit(qrInviteHandler.CompleteSignup))
	mux.HandleFunc("POST /invite/approve/{token}", middleware.RateLimit(qrInviteHandler.Approve))
	mux.HandleFunc("POST /invite/decline/{token}", middleware.RateLimit(qrInviteHandler.Decline))
	mux.HandleFunc("GET /invite/{token}", middleware.RateLimit(qrInviteHandler.Details))
	mux.HandleFunc("POST /invite/{token}", middleware.RateLimit(qrInviteHandler.SubmitInfo))

	// Shared session routes
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(authHandler.Me))

	// Parent routes
	mux.HandleFunc("GET /api/parent/children", middleware.RequireParent(authHandler.ListChildren))
	mux.HandleFunc("POST /api/parent/children", middleware.RequireParent(middleware.CSRFProtect(authHandler.CreateChild)))
	mux.HandleFunc("POST /api/parent/children/{id}/pin", middleware.RequireParent(middleware.CSRFProtect(authHandler.ResetChildPIN)))
	mux.HandleFunc("GET /api/parent/dashboard", middleware.RequireParent(hangHandler.ParentDashboard))
	mux.HandleFunc("POST /api/parent/hangs/{id}/cancel/{childId}", middleware.RequireParent(middleware.CSRFProtect(approvalHandler.Cancel)))

	// Kid routes: hangs
	mux.HandleFunc("GET /api/hangs", middleware.RequireChild(hangHandler.List))
	mux.HandleFunc("POST /api/hangs", middleware.RequireChild(middleware.CSRFProtect(hangHandler.Create)))
	mux.HandleFunc("GET /api/hangs/{id}", middleware.RequireChild(hangHandler.Get))
	mux.HandleFunc("POST /api/hangs/{id}/join", middleware.RequireChild(middleware.CSRFProtect(hangHandler.Join)))
	mux.HandleFunc("POST /api/hangs/{id}/ping", middleware.RequireChild(middleware.CSRFProtect(hangHandler.RequestApproval)))
	mux.HandleFunc("POST /api/hangs/{id}/leave", middleware.RequireChild(middleware.CSRFProtect(hangHandler.Leave)))
	mux.HandleFunc("POST /api/hangs/{id}/decline", middleware.RequireChild(middleware.CSRFProtect(hangHandler.DeclineInvite)))
	mux.HandleFunc("GET /api/invites", middleware.RequireChild(hangHandler.ListInvites))

	// Kid routes: friends and groups
	mux.HandleFunc("GET /api/friends", middleware.RequireChild(friendHandler.List))
	mux.HandleFunc("POST /api/friends/requests", middleware.RequireChild(middleware.CSRFProtect(friendHandler.SendRequest)))
	mux.HandleFunc("GET /api/friends/requests", middleware.RequireChild(friendHandler.ListRequests))
	mux.HandleFunc("POST /api/friends/requests/{id}/accept", middleware.RequireChild(middleware.CSRFProtect(friendHandler.AcceptRequest)))
	mux.HandleFunc("POST /api/friends/requests/{id}/decline", middleware.RequireChild(middleware.CSRFProtect(friendHandler.DeclineRequest)))
	mux.HandleFunc("DELETE /api/friends/requests/{id}", middleware.RequireChild(middleware.CSRFProtect(friendHandler.CancelRequest)))
	mux.HandleFunc("DELETE /api/friends/{id}", middleware.RequireChild(middleware.CSRFProtect(friendHandler.Remove)))
	mux.HandleFunc("POST /api/friends/{id}/groups", middleware.RequireChild(middleware.CSRFProtect(friendHandler.AddGroup)))
	mux.HandleFunc("POST /api/friends/{id}/groups/toggle", middleware.RequireChild(middleware.CSRFProtect(friendHandler.ToggleGroup)))

	// Kid routes: QR invites, profile and feed
	mux.HandleFunc("POST /api/qr-invites", middleware.RequireChild(middleware.CSRFProtect(qrInviteHandler.Generate)))
	mux.HandleFunc("POST /api/me/avatar", middleware.RequireChild(middleware.CSRFProtect(authHandler.UpdateAvatar)))
	mux.HandleFunc("GET /api/activities", middleware.RequireChild(hangHandler.Feed))
	mux.HandleFunc("POST /api/activities/{id}/read", middleware.RequireChild(middleware.CSRFProtect(hangHandler.MarkActivityRead)))
	mux.HandleFunc("POST /api/activities/read-all", middleware.RequireChild(middleware.CSRFProtect(hangHandler.MarkAllActivitiesRead)))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
}
