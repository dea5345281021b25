package routes

import (
	"net/http"

	"github.com/parchly/parchly/internal/app"
	"github.com/parchly/parchly/internal/handler"
	"github.com/parchly/parchly/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	file := handler.NewFileHandler(app.IngestService, app.FileService, app.Cfg.MaxUploadSize)
	chat := handler.NewChatHandler(app.ChatService)
	models := handler.NewModelsHandler()

	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Model catalog
	mux.HandleFunc("GET /api/models", models.List)

	// Files (rate limited ingestion)
	uploadLimiter := middleware.RateLimitUploads()
	mux.HandleFunc("POST /api/workspaces/{id}/files", middleware.RequireAuth(uploadLimiter(file.Upload)))
	mux.HandleFunc("GET /api/workspaces/{id}/files", middleware.RequireAuth(file.ListByWorkspace))
	mux.HandleFunc("DELETE /api/workspaces/{workspaceID}/files/{fileID}", middleware.RequireAuth(file.Unlink))
	mux.HandleFunc("GET /api/files/{id}", middleware.RequireAuth(file.ByID))
	mux.HandleFunc("DELETE /api/files/{id}", middleware.RequireAuth(file.Delete))

	// Chat proxy
	chatLimiter := middleware.RateLimitChat()
	mux.HandleFunc("POST /api/chat", middleware.RequireAuth(chatLimiter(chat.Chat)))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.Auth(app.Cfg.JWTSecret),
	)

	return handler
}
