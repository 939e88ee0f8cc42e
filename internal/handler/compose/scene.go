package compose

import (
	"net/http"

	"github.com/gin-gonic/gin"

	modelcompose "pomelo/internal/model/compose"
	"pomelo/internal/pkg/ctxutil"
	resp "pomelo/internal/pkg/http"
)

// SceneRequest 创建/更新场景请求
type SceneRequest struct {
	Order           int                     `json:"order"`                                // 渲染顺序
	Duration        float64                 `json:"duration" binding:"required,gt=0"`     // 时长（秒，必须为正）
	NarrationText   string                  `json:"narration_text"`                       // 解说文本（可选）
	Background      modelcompose.Background `json:"background"`                           // 背景配置
	StylePreset     string                  `json:"style_preset"`                         // 样式预设
	EntryTransition modelcompose.Transition `json:"entry_transition"`                     // 入场转场
	ExitTransition  modelcompose.Transition `json:"exit_transition"`                      // 出场转场
}

// CreateScene 在项目下创建场景
// @Summary      创建场景
// @Tags         场景管理
// @Accept       json
// @Produce      json
// @Param        project_id  path      string        true  "项目ID"
// @Param        request     body      SceneRequest  true  "创建场景请求"
// @Success      201         {object}  http.SuccessResponse
// @Failure      400         {object}  http.ErrorResponse
// @Router       /api/v1/projects/{project_id}/scenes [post]
func (h *Handler) CreateScene(c *gin.Context) {
	var req SceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, resp.NewErrorResponse(40001, "Invalid request body", err.Error()))
		return
	}

	ctx := c.Request.Context()
	userID, _ := ctxutil.GetUserID(ctx)

	scene := &modelcompose.Scene{
		ProjectID:       c.Param("project_id"),
		UserID:          userID,
		Order:           req.Order,
		Duration:        req.Duration,
		NarrationText:   req.NarrationText,
		Background:      req.Background,
		StylePreset:     req.StylePreset,
		EntryTransition: req.EntryTransition,
		ExitTransition:  req.ExitTransition,
	}

	created, err := h.composeService.CreateScene(ctx, scene)
	if err != nil {
		c.JSON(http.StatusBadRequest, resp.NewErrorResponse(40002, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, resp.NewSuccessResponse("场景创建成功", created))
}

// ListScenes 获取项目的所有场景（按渲染顺序）
// @Summary      场景列表
// @Tags         场景管理
// @Produce      json
// @Param        project_id  path      string  true  "项目ID"
// @Success      200         {object}  http.SuccessResponse
// @Router       /api/v1/projects/{project_id}/scenes [get]
func (h *Handler) ListScenes(c *gin.Context) {
	scenes, err := h.composeService.ListScenes(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, resp.NewErrorResponse(50001, err.Error()))
		return
	}

	c.JSON(http.StatusOK, resp.NewSuccessResponse("success", scenes))
}

// UpdateScene 更新场景
// @Summary      更新场景
// @Tags         场景管理
// @Accept       json
// @Produce      json
// @Param        scene_id  path      string        true  "场景ID"
// @Param        request   body      SceneRequest  true  "更新场景请求"
// @Success      200       {object}  http.SuccessResponse
// @Failure      400       {object}  http.ErrorResponse
// @Router       /api/v1/scenes/{scene_id} [put]
func (h *Handler) UpdateScene(c *gin.Context) {
	var req SceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, resp.NewErrorResponse(40001, "Invalid request body", err.Error()))
		return
	}

	ctx := c.Request.Context()

	scene := &modelcompose.Scene{
		ID:              c.Param("scene_id"),
		Order:           req.Order,
		Duration:        req.Duration,
		NarrationText:   req.NarrationText,
		Background:      req.Background,
		StylePreset:     req.StylePreset,
		EntryTransition: req.EntryTransition,
		ExitTransition:  req.ExitTransition,
	}

	if err := h.composeService.UpdateScene(ctx, scene); err != nil {
		c.JSON(http.StatusBadRequest, resp.NewErrorResponse(40002, err.Error()))
		return
	}

	c.JSON(http.StatusOK, resp.NewSuccessResponse("场景更新成功", nil))
}

// DeleteScene 删除场景（级联删除其资产）
// @Summary      删除场景
// @Tags         场景管理
// @Produce      json
// @Param        scene_id  path      string  true  "场景ID"
// @Success      200       {object}  http.SuccessResponse
// @Router       /api/v1/scenes/{scene_id} [delete]
func (h *Handler) DeleteScene(c *gin.Context) {
	if err := h.composeService.DeleteScene(c.Request.Context(), c.Param("scene_id")); err != nil {
		c.JSON(http.StatusInternalServerError, resp.NewErrorResponse(50001, err.Error()))
		return
	}

	c.JSON(http.StatusOK, resp.NewSuccessResponse("场景删除成功", nil))
}
