package compose

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomelo/internal/pkg/ctxutil"
	resp "pomelo/internal/pkg/http"
)

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Title string `json:"title" binding:"required"` // 项目标题（必填）
}

// CreateProject 创建项目
// @Summary      创建项目
// @Description  创建一个空项目，之后在项目下添加场景和资产
// @Tags         项目管理
// @Accept       json
// @Produce      json
// @Param        request  body      CreateProjectRequest  true  "创建项目请求"
// @Success      201      {object}  http.SuccessResponse
// @Failure      400      {object}  http.ErrorResponse
// @Router       /api/v1/projects [post]
func (h *Handler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, resp.NewErrorResponse(40001, "Invalid request body", err.Error()))
		return
	}

	ctx := c.Request.Context()
	userID, _ := ctxutil.GetUserID(ctx)

	project, err := h.composeService.CreateProject(ctx, userID, req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, resp.NewErrorResponse(50001, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, resp.NewSuccessResponse("项目创建成功", project))
}

// GetProject 获取项目
// @Summary      获取项目
// @Tags         项目管理
// @Produce      json
// @Param        project_id  path      string  true  "项目ID"
// @Success      200         {object}  http.SuccessResponse
// @Failure      404         {object}  http.ErrorResponse
// @Router       /api/v1/projects/{project_id} [get]
func (h *Handler) GetProject(c *gin.Context) {
	projectID := c.Param("project_id")

	project, err := h.composeService.GetProject(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, resp.NewErrorResponse(40401, "项目不存在", err.Error()))
		return
	}

	c.JSON(http.StatusOK, resp.NewSuccessResponse("success", project))
}

// ListProjects 获取当前用户的所有项目
// @Summary      项目列表
// @Tags         项目管理
// @Produce      json
// @Success      200  {object}  http.SuccessResponse
// @Router       /api/v1/projects [get]
func (h *Handler) ListProjects(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := ctxutil.GetUserID(ctx)

	projects, err := h.composeService.ListProjects(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, resp.NewErrorResponse(50001, err.Error()))
		return
	}

	c.JSON(http.StatusOK, resp.NewSuccessResponse("success", projects))
}

// UpdateProjectRequest 更新项目请求
type UpdateProjectRequest struct {
	Title string `json:"title" binding:"required"` // 项目标题（必填）
}

// UpdateProject 更新项目标题
// @Summary      更新项目
// @Tags         项目管理
// @Accept       json
// @Produce      json
// @Param        project_id  path      string                true  "项目ID"
// @Param        request     body      UpdateProjectRequest  true  "更新项目请求"
// @Success      200         {object}  http.SuccessResponse
// @Failure      400         {object}  http.ErrorResponse
// @Router       /api/v1/projects/{project_id} [put]
func (h *Handler) UpdateProject(c *gin.Context) {
	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, resp.NewErrorResponse(40001, "Invalid request body", err.Error()))
		return
	}

	projectID := c.Param("project_id")
	if err := h.composeService.UpdateProjectTitle(c.Request.Context(), projectID, req.Title); err != nil {
		c.JSON(http.StatusInternalServerError, resp.NewErrorResponse(50001, err.Error()))
		return
	}

	c.JSON(http.StatusOK, resp.NewSuccessResponse("项目更新成功", nil))
}

// DeleteProject 删除项目（级联删除场景和资产）
// @Summary      删除项目
// @Tags         项目管理
// @Produce      json
// @Param        project_id  path      string  true  "项目ID"
// @Success      200         {object}  http.SuccessResponse
// @Failure      500         {object}  http.ErrorResponse
// @Router       /api/v1/projects/{project_id} [delete]
func (h *Handler) DeleteProject(c *gin.Context) {
	projectID := c.Param("project_id")

	if err := h.composeService.DeleteProject(c.Request.Context(), projectID); err != nil {
		c.JSON(http.StatusInternalServerError, resp.NewErrorResponse(50001, err.Error()))
		return
	}

	c.JSON(http.StatusOK, resp.NewSuccessResponse("项目删除成功", nil))
}
