package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed static
var assets embed.FS

// Handler 提供内嵌的前端页面
type Handler struct {
	files http.Handler
}

// New 创建静态页面处理器
func New() *Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		// the embed directive guarantees the directory exists
		panic(err)
	}
	return &Handler{files: http.FileServer(http.FS(sub))}
}

// RegisterRoutes 注册页面路由，须挂载在根路由上
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.files.ServeHTTP)
	r.Get("/static/*", http.StripPrefix("/static", h.files).ServeHTTP)
}
