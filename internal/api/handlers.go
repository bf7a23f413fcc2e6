package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robo-univ/agent-portal/internal/apperrors"
	"github.com/robo-univ/agent-portal/internal/cache"
	"github.com/robo-univ/agent-portal/internal/core"
	"github.com/robo-univ/agent-portal/internal/store"
)

// maxMultipartMemory is the in-memory part of a document upload.
const maxMultipartMemory = 8 << 20

type APIHandler struct {
	dbStore         *store.SQLiteStore
	cache           cache.Cache // nil when translations are not cached
	agentService    *core.AgentService
	chatService     *core.ChatService
	documentService *core.DocumentService
}

func NewAPIHandler(db *store.SQLiteStore, c cache.Cache, as *core.AgentService, cs *core.ChatService, ds *core.DocumentService) *APIHandler {
	return &APIHandler{
		dbStore:         db,
		cache:           c,
		agentService:    as,
		chatService:     cs,
		documentService: ds,
	}
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.dbStore.Ping(ctx); err != nil {
		writeError(w, apperrors.NewServiceUnavailableError("database", err))
		return
	}

	// The translation cache is optional; an unreachable one only degrades the report.
	cacheStatus := "disabled"
	if h.cache != nil {
		cacheStatus = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Translation cache unreachable")
			cacheStatus = "unavailable"
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "cache": cacheStatus})
}

// Agents

func (h *APIHandler) ListAgentsHandler(w http.ResponseWriter, r *http.Request) {
	agents, err := h.agentService.ListAgents(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (h *APIHandler) ListManagedAgentsHandler(w http.ResponseWriter, r *http.Request) {
	agents, err := h.agentService.ListManagedAgents(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (h *APIHandler) GetAgentHandler(w http.ResponseWriter, r *http.Request) {
	agentID, err := int64Param(r, "agentID")
	if err != nil {
		writeError(w, err)
		return
	}
	agent, err := h.agentService.GetAgent(r.Context(), actorFromContext(r.Context()), agentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h *APIHandler) UpdatePersonaHandler(w http.ResponseWriter, r *http.Request) {
	agentID, err := int64Param(r, "agentID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req core.PersonaUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	agent, err := h.agentService.UpdatePersona(r.Context(), actorFromContext(r.Context()), agentID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h *APIHandler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	agentID, err := int64Param(r, "agentID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req core.SettingsUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	agent, err := h.agentService.UpdateSettings(r.Context(), actorFromContext(r.Context()), agentID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

type UpdateIconRequest struct {
	Icon            store.Icon `json:"icon"`
	BackgroundColor string     `json:"backgroundColor"`
}

func (h *APIHandler) UpdateIconHandler(w http.ResponseWriter, r *http.Request) {
	agentID, err := int64Param(r, "agentID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req UpdateIconRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	agent, err := h.agentService.UpdateIcon(r.Context(), actorFromContext(r.Context()), agentID, req.Icon, req.BackgroundColor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

type BroadcastRequest struct {
	Message string `json:"message"`
}

func (h *APIHandler) BroadcastHandler(w http.ResponseWriter, r *http.Request) {
	agentID, err := int64Param(r, "agentID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req BroadcastRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.chatService.Broadcast(r.Context(), actorFromContext(r.Context()), agentID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Documents

func (h *APIHandler) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	agentID, err := int64Param(r, "agentID")
	if err != nil {
		writeError(w, err)
		return
	}
	docs, err := h.documentService.List(r.Context(), actorFromContext(r.Context()), agentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *APIHandler) UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	agentID, err := int64Param(r, "agentID")
	if err != nil {
		writeError(w, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, core.MaxUploadSize+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, apperrors.NewBadRequestError("invalid upload", err.Error()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.NewBadRequestError("file field is required", err.Error()))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperrors.NewBadRequestError("failed to read upload", err.Error()))
		return
	}

	doc, err := h.documentService.Upload(r.Context(), actorFromContext(r.Context()), agentID,
		header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *APIHandler) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	documentID, err := int64Param(r, "documentID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.documentService.Delete(r.Context(), actorFromContext(r.Context()), documentID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ReprocessDocumentHandler(w http.ResponseWriter, r *http.Request) {
	documentID, err := int64Param(r, "documentID")
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := h.documentService.Reprocess(r.Context(), actorFromContext(r.Context()), documentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Conversations

type CreateConversationRequest struct {
	AgentID int64  `json:"agentId"`
	Type    string `json:"type"`
}

func (h *APIHandler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	convs, err := h.chatService.ListConversations(r.Context(), actor.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *APIHandler) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.openConversation(w, r, req.AgentID, req.Type)
}

func (h *APIHandler) CreateManagementConversationHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.openConversation(w, r, req.AgentID, store.ConversationTypeManagement)
}

func (h *APIHandler) openConversation(w http.ResponseWriter, r *http.Request, agentID int64, convType string) {
	if agentID <= 0 {
		writeError(w, apperrors.NewValidationError("agentId is required", ""))
		return
	}
	conv, err := h.chatService.GetOrCreateConversation(r.Context(), actorFromContext(r.Context()), agentID, convType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *APIHandler) GetMessagesHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	messages, err := h.chatService.GetMessages(r.Context(), chi.URLParam(r, "conversationID"), actor.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

type SendMessageRequest struct {
	Content      string `json:"content"`
	UserLanguage string `json:"userLanguage"`
}

func (h *APIHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	actor := actorFromContext(r.Context())
	result, err := h.chatService.SendMessage(r.Context(), chi.URLParam(r, "conversationID"), actor.UserID, req.Content, req.UserLanguage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *APIHandler) ClearMessagesHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	if err := h.chatService.ClearMessages(r.Context(), chi.URLParam(r, "conversationID"), actor.UserID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	if err := h.chatService.MarkRead(r.Context(), chi.URLParam(r, "conversationID"), actor.UserID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) HideConversationHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	if err := h.chatService.HideConversation(r.Context(), chi.URLParam(r, "conversationID"), actor.UserID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reactions

type ReactionRequest struct {
	Reaction string `json:"reaction"`
}

func (h *APIHandler) ListReactionsHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	reactions, err := h.chatService.ListReactions(r.Context(), chi.URLParam(r, "conversationID"), actor.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reactions)
}

func (h *APIHandler) SetReactionHandler(w http.ResponseWriter, r *http.Request) {
	var req ReactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	actor := actorFromContext(r.Context())
	reaction, err := h.chatService.SetReaction(r.Context(), chi.URLParam(r, "messageID"), actor.UserID, req.Reaction)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reaction)
}

func (h *APIHandler) DeleteReactionHandler(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	if err := h.chatService.DeleteReaction(r.Context(), chi.URLParam(r, "messageID"), actor.UserID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
