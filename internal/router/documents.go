package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/document-extractor/internal/handlers"
	"github.com/BerylCAtieno/document-extractor/internal/middleware"
	"github.com/BerylCAtieno/document-extractor/internal/services"
	"github.com/BerylCAtieno/document-extractor/internal/utils"
)

type Services struct {
	Documents services.DocumentService
	Chat      services.ChatService
	Export    services.ExportService
}

func NewRouter(svc Services, maxFileSize int64, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))

	r.NotFoundHandler = handlers.NotFound(logger)
	r.MethodNotAllowedHandler = handlers.MethodNotAllowed(logger)

	docHandler := handlers.NewDocumentHandler(svc.Documents, svc.Export, maxFileSize, logger)
	chatHandler := handlers.NewChatHandler(svc.Chat, logger)

	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = r.NotFoundHandler
	api.MethodNotAllowedHandler = r.MethodNotAllowedHandler

	api.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)

	api.HandleFunc("/extract", docHandler.Extract).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/chat", chatHandler.Chat).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/download/{id}/{format}", docHandler.Download).Methods(http.MethodGet)

	api.HandleFunc("/documents/{id}", docHandler.GetDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/original", docHandler.GetOriginal).Methods(http.MethodGet)

	return r
}
