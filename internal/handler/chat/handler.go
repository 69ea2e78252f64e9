package chat

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/threebody-chat/internal/model/chat"
	"github.com/zhouzirui/threebody-chat/internal/model/persona"
	"github.com/zhouzirui/threebody-chat/internal/service/ai"
	chatService "github.com/zhouzirui/threebody-chat/internal/service/chat"
	"github.com/zhouzirui/threebody-chat/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc      *chatService.Service
	personaStore persona.Store
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, personaStore persona.Store) *Handler {
	return &Handler{
		chatSvc:      chatSvc,
		personaStore: personaStore,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Delete("/session/{sessionID}", h.handleDeleteSession)
	r.Put("/session/{sessionID}/persona", h.handleSwitchPersona)
	r.Post("/session/{sessionID}/messages", h.handleSendMessage)
}

type personaPayload struct {
	PersonaID string `json:"personaId"`
}

// sendResponse 发送消息成功后的响应
type sendResponse struct {
	Message chat.Message `json:"message"`
	Session chat.Session `json:"session"`
}

// handleCreateSession 创建会话并写入角色问候语
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload personaPayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.validPersona(w, payload.PersonaID) {
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.PersonaID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleGetSession 返回会话快照
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleDeleteSession 删除会话
func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSwitchPersona 切换角色，会话历史被重置
func (h *Handler) handleSwitchPersona(w http.ResponseWriter, r *http.Request) {
	var payload personaPayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.validPersona(w, payload.PersonaID) {
		return
	}

	session, err := h.chatSvc.SwitchPersona(r.Context(), chi.URLParam(r, "sessionID"), payload.PersonaID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleSendMessage 发送用户消息并等待角色回复
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	reply, session, err := h.chatSvc.Send(r.Context(), sessionID, payload.Content)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, sendResponse{Message: reply, Session: session})
}

func (h *Handler) validPersona(w http.ResponseWriter, personaID string) bool {
	if personaID == "" {
		utils.RespondError(w, http.StatusBadRequest, "personaId is required")
		return false
	}
	if _, ok := h.personaStore.FindByID(personaID); !ok {
		utils.RespondError(w, http.StatusBadRequest, "persona not found")
		return false
	}
	return true
}

// respondServiceError 将服务层错误映射为HTTP状态码
func respondServiceError(w http.ResponseWriter, err error) {
	var cerr *ai.CompletionError

	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chatService.ErrPersonaRequired), errors.Is(err, chatService.ErrUnknownPersona):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chatService.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, chatService.UserMessage(err))
	case errors.Is(err, chatService.ErrCredentialRequired):
		utils.RespondErrorBody(w, http.StatusPreconditionRequired, utils.ErrorBody{
			Error:              chatService.UserMessage(err),
			CredentialRequired: true,
		})
	case errors.Is(err, chatService.ErrBusy), errors.Is(err, chatService.ErrSuperseded):
		utils.RespondError(w, http.StatusConflict, chatService.UserMessage(err))
	case errors.As(err, &cerr):
		utils.RespondErrorBody(w, http.StatusBadGateway, utils.ErrorBody{
			Error:              ai.UserMessage(err),
			Kind:               string(cerr.Kind),
			CredentialRequired: cerr.Kind == ai.KindUnauthorized,
		})
	default:
		log.Printf("[chat] unexpected error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, ai.UserMessage(err))
	}
}
