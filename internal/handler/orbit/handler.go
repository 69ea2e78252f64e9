package orbit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	orbitService "github.com/zhouzirui/threebody-chat/internal/service/orbit"
	"github.com/zhouzirui/threebody-chat/pkg/utils"
)

// maxStars caps the star count a client may request.
const maxStars = 1000

// Handler 星空背景的HTTP处理器
type Handler struct {
	defaultCount int
}

// New 创建星空处理器
func New(defaultCount int) *Handler {
	if defaultCount <= 0 {
		defaultCount = orbitService.DefaultStarCount
	}
	return &Handler{defaultCount: defaultCount}
}

// RegisterRoutes 注册星空相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/starfield", h.handleStarField)
}

// handleStarField 返回星星布局，相同seed得到相同布局
func (h *Handler) handleStarField(w http.ResponseWriter, r *http.Request) {
	count := h.defaultCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.RespondError(w, http.StatusBadRequest, "count must be a non-negative integer")
			return
		}
		count = min(n, maxStars)
	}

	seed := time.Now().UnixNano()
	if raw := r.URL.Query().Get("seed"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "seed must be an integer")
			return
		}
		seed = n
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"seed":  seed,
		"stars": orbitService.StarField(count, seed),
	})
}
