package render

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomelo/internal/pkg/ctxutil"
	resp "pomelo/internal/pkg/http"
)

// SubmitJobRequest 提交渲染任务请求
type SubmitJobRequest struct {
	ProjectID string `json:"project_id" binding:"required"` // 项目ID（必填）
	Quality   string `json:"quality"`                       // 画质档位（low/medium/high/ultra，未知值回退到 high）
}

// SubmitJobResponseData 提交渲染任务响应数据
type SubmitJobResponseData struct {
	JobID string `json:"job_id"` // 任务ID，用于后续轮询
}

// Submit 提交渲染任务
// @Summary      提交渲染任务
// @Description  读取项目场景图的不可变快照并开始后台渲染，返回任务ID。
// @Description  之后对项目的编辑不影响该任务。
// @Tags         渲染任务
// @Accept       json
// @Produce      json
// @Param        request  body      SubmitJobRequest  true  "提交渲染任务请求"
// @Success      202      {object}  http.SuccessResponse
// @Failure      400      {object}  http.ErrorResponse
// @Router       /api/v1/render/jobs [post]
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, resp.NewErrorResponse(40001, "Invalid request body", err.Error()))
		return
	}

	ctx := c.Request.Context()
	userID, _ := ctxutil.GetUserID(ctx)

	job, err := h.renderService.Submit(ctx, userID, req.ProjectID, req.Quality)
	if err != nil {
		c.JSON(http.StatusBadRequest, resp.NewErrorResponse(40002, err.Error()))
		return
	}

	c.JSON(http.StatusAccepted, resp.NewSuccessResponse("渲染任务已提交", SubmitJobResponseData{
		JobID: job.ID,
	}))
}

// Poll 查询任务状态
// @Summary      查询渲染任务
// @Description  返回任务状态；completed 时携带产物清单，failed 时携带结构化错误。
// @Tags         渲染任务
// @Produce      json
// @Param        job_id  path      string  true  "任务ID"
// @Success      200     {object}  http.SuccessResponse
// @Failure      404     {object}  http.ErrorResponse
// @Router       /api/v1/render/jobs/{job_id} [get]
func (h *Handler) Poll(c *gin.Context) {
	job, err := h.renderService.Poll(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, resp.NewErrorResponse(40401, "任务不存在", err.Error()))
		return
	}

	c.JSON(http.StatusOK, resp.NewSuccessResponse("success", job))
}

// Cancel 取消任务
// @Summary      取消渲染任务
// @Description  中止进行中的渲染并清理临时资源，任务终态为 cancelled（区别于 failed）。
// @Tags         渲染任务
// @Produce      json
// @Param        job_id  path      string  true  "任务ID"
// @Success      200     {object}  http.SuccessResponse
// @Failure      400     {object}  http.ErrorResponse
// @Router       /api/v1/render/jobs/{job_id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	if err := h.renderService.Cancel(c.Request.Context(), c.Param("job_id")); err != nil {
		c.JSON(http.StatusBadRequest, resp.NewErrorResponse(40002, err.Error()))
		return
	}

	c.JSON(http.StatusOK, resp.NewSuccessResponse("取消请求已接受", nil))
}

// ListByProject 查询项目的所有渲染任务
// @Summary      项目渲染任务列表
// @Tags         渲染任务
// @Produce      json
// @Param        project_id  path      string  true  "项目ID"
// @Success      200         {object}  http.SuccessResponse
// @Router       /api/v1/projects/{project_id}/render/jobs [get]
func (h *Handler) ListByProject(c *gin.Context) {
	jobs, err := h.renderService.ListByProject(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, resp.NewErrorResponse(50001, err.Error()))
		return
	}

	c.JSON(http.StatusOK, resp.NewSuccessResponse("success", jobs))
}
