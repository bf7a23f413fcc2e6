package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", apiHandler.HealthHandler)

		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Get("/agents", apiHandler.ListAgentsHandler)
			r.Get("/agents/managed", apiHandler.ListManagedAgentsHandler)
			r.Route("/agents/{agentID}", func(r chi.Router) {
				r.Get("/", apiHandler.GetAgentHandler)
				r.Put("/persona", apiHandler.UpdatePersonaHandler)
				r.Put("/settings", apiHandler.UpdateSettingsHandler)
				r.Put("/icon", apiHandler.UpdateIconHandler)
				r.Post("/broadcast", apiHandler.BroadcastHandler)
				r.Get("/documents", apiHandler.ListDocumentsHandler)
				r.Post("/documents", apiHandler.UploadDocumentHandler)
			})

			r.Delete("/documents/{documentID}", apiHandler.DeleteDocumentHandler)
			r.Post("/documents/{documentID}/reprocess", apiHandler.ReprocessDocumentHandler)

			r.Get("/conversations", apiHandler.ListConversationsHandler)
			r.Post("/conversations", apiHandler.CreateConversationHandler)
			r.Post("/conversations/management", apiHandler.CreateManagementConversationHandler)
			r.Route("/conversations/{conversationID}", func(r chi.Router) {
				r.Delete("/", apiHandler.HideConversationHandler)
				r.Get("/messages", apiHandler.GetMessagesHandler)
				r.Post("/messages", apiHandler.SendMessageHandler)
				r.Delete("/messages", apiHandler.ClearMessagesHandler)
				r.Post("/read", apiHandler.MarkReadHandler)
				r.Get("/reactions", apiHandler.ListReactionsHandler)
			})

			r.Post("/messages/{messageID}/reactions", apiHandler.SetReactionHandler)
			r.Delete("/messages/{messageID}/reactions", apiHandler.DeleteReactionHandler)
		})
	})

	return r
}
