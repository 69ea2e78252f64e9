package credential

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	credentialService "github.com/zhouzirui/threebody-chat/internal/service/credential"
	"github.com/zhouzirui/threebody-chat/pkg/utils"
)

// Store API Key存储需要提供的能力
type Store interface {
	Present() bool
	Masked() string
	Set(key string) error
}

// Reseeder 在API Key变化后重置所有会话
type Reseeder interface {
	ReseedAll(ctx context.Context) int
}

// Handler API Key设置的HTTP处理器
type Handler struct {
	store    Store
	sessions Reseeder
}

// New 创建API Key处理器
func New(store Store, sessions Reseeder) *Handler {
	return &Handler{
		store:    store,
		sessions: sessions,
	}
}

// RegisterRoutes 注册API Key相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/credential", h.handleGetCredential)
	r.Put("/credential", h.handleSetCredential)
}

type credentialResponse struct {
	Present bool   `json:"present"`
	Masked  string `json:"masked,omitempty"`
	Message string `json:"message,omitempty"`
}

// handleGetCredential 返回当前是否已配置API Key，不返回明文
func (h *Handler) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, credentialResponse{
		Present: h.store.Present(),
		Masked:  h.store.Masked(),
	})
}

// handleSetCredential 校验并保存API Key，随后重置会话
func (h *Handler) handleSetCredential(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		APIKey string `json:"apiKey"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Set(payload.APIKey); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, credentialService.ErrEmpty) || errors.Is(err, credentialService.ErrInvalidFormat) {
			status = http.StatusBadRequest
		} else {
			log.Printf("[credential] failed to persist api key: %v", err)
		}
		utils.RespondError(w, status, credentialService.UserMessage(err))
		return
	}

	reseeded := h.sessions.ReseedAll(r.Context())
	log.Printf("[credential] api key updated (%s), reseeded %d sessions", h.store.Masked(), reseeded)

	utils.RespondJSON(w, http.StatusOK, credentialResponse{
		Present: true,
		Masked:  h.store.Masked(),
		Message: "API key saved!",
	})
}
