package compose

import (
	"pomelo/internal/service"
)

// Handler 场景图编排处理器
// 所有 compose 相关的 Handler 方法都通过这个结构体访问 Service
type Handler struct {
	composeService service.ComposeService
}

// NewHandler 创建场景图编排处理器
func NewHandler(composeService service.ComposeService) *Handler {
	return &Handler{
		composeService: composeService,
	}
}
