package render

import (
	"pomelo/internal/service"
)

// Handler 渲染任务处理器
type Handler struct {
	renderService service.RenderService
}

// NewHandler 创建渲染任务处理器
func NewHandler(renderService service.RenderService) *Handler {
	return &Handler{
		renderService: renderService,
	}
}
