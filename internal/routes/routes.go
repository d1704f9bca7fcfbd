package routes

import (
	"net/http"

	"github.com/templui/muzer/internal/app"
	"github.com/templui/muzer/internal/handler"
	"github.com/templui/muzer/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg)
	user := handler.NewUserHandler()
	stream := handler.NewStreamHandler(app.StreamService)
	vote := handler.NewVoteHandler(app.VoteService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("GET /auth/{provider}", rateLimiter(auth.Login))
	mux.HandleFunc("GET /auth/{provider}/callback", rateLimiter(auth.Callback))
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// Queue browsing and submission are open to anonymous viewers
	submitLimit := middleware.RateLimit(app.SubmitLimiter, middleware.ClientIPKey)

	mux.HandleFunc("GET /stream", stream.List)
	mux.HandleFunc("POST /stream", submitLimit(stream.Submit))

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	voteLimit := middleware.RateLimit(app.VoteLimiter, middleware.SessionUserKey)

	mux.HandleFunc("GET /user", middleware.RequireAuth(user.Whoami))
	mux.HandleFunc("GET /stream/my", middleware.RequireAuth(stream.My))
	mux.HandleFunc("GET /stream/next", middleware.RequireAuth(stream.Next))
	mux.HandleFunc("POST /stream/upvote", middleware.RequireAuth(voteLimit(vote.Upvote)))
	mux.HandleFunc("POST /stream/downvote", middleware.RequireAuth(voteLimit(vote.Downvote)))
	mux.HandleFunc("DELETE /stream/{id}", middleware.RequireAuth(stream.Delete))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", func(w http.ResponseWriter, r *http.Request) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Not found")
	})

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (read by the rest)
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.CSRFProtection,
		middleware.AuthMiddleware(app.AuthService, app.UserService),
	)

	return handler
}
