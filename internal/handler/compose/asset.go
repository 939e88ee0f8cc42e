package compose

import (
	"net/http"

	"github.com/gin-gonic/gin"

	modelcompose "pomelo/internal/model/compose"
	"pomelo/internal/pkg/ctxutil"
	resp "pomelo/internal/pkg/http"
)

// AssetRequest 创建/更新资产请求
type AssetRequest struct {
	Kind          modelcompose.AssetKind   `json:"kind" binding:"required"` // 资产类型（必填）
	ResourceID    string                   `json:"resource_id"`             // 源文件资源ID（text 类型不需要）
	X             float64                  `json:"x"`                       // 横向位置 [0,1]
	Y             float64                  `json:"y"`                       // 纵向位置 [0,1]
	Scale         float64                  `json:"scale"`                   // 缩放系数
	Rotation      float64                  `json:"rotation"`                // 旋转角度（度）
	Opacity       *float64                 `json:"opacity"`                 // 不透明度 [0,1]，缺省为完全不透明
	Layer         int                      `json:"layer"`                   // 图层
	TimelineStart float64                  `json:"timeline_start"`          // 窗口起点（秒）
	TimelineEnd   *float64                 `json:"timeline_end"`            // 窗口终点（秒，缺省为场景时长）
	Crop          *modelcompose.CropRect   `json:"crop"`                    // 裁剪（image/video）
	Text          *modelcompose.TextStyle  `json:"text"`                    // 文本样式（text）
	Audio         *modelcompose.AudioStyle `json:"audio"`                   // 音频参数（audio_track/background_music）
	Animation     *modelcompose.Animation  `json:"animation"`               // 入场/出场动画
}

func (req *AssetRequest) toAsset() *modelcompose.Asset {
	return &modelcompose.Asset{
		Kind:          req.Kind,
		ResourceID:    req.ResourceID,
		X:             req.X,
		Y:             req.Y,
		Scale:         req.Scale,
		Rotation:      req.Rotation,
		Opacity:       req.Opacity,
		Layer:         req.Layer,
		TimelineStart: req.TimelineStart,
		TimelineEnd:   req.TimelineEnd,
		Crop:          req.Crop,
		Text:          req.Text,
		Audio:         req.Audio,
		Animation:     req.Animation,
	}
}

// CreateAsset 在场景下创建资产
// @Summary      创建资产
// @Tags         资产管理
// @Accept       json
// @Produce      json
// @Param        scene_id  path      string        true  "场景ID"
// @Param        request   body      AssetRequest  true  "创建资产请求"
// @Success      201       {object}  http.SuccessResponse
// @Failure      400       {object}  http.ErrorResponse
// @Router       /api/v1/scenes/{scene_id}/assets [post]
func (h *Handler) CreateAsset(c *gin.Context) {
	var req AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, resp.NewErrorResponse(40001, "Invalid request body", err.Error()))
		return
	}

	ctx := c.Request.Context()
	userID, _ := ctxutil.GetUserID(ctx)

	asset := req.toAsset()
	asset.SceneID = c.Param("scene_id")
	asset.UserID = userID

	created, err := h.composeService.CreateAsset(ctx, asset)
	if err != nil {
		c.JSON(http.StatusBadRequest, resp.NewErrorResponse(40002, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, resp.NewSuccessResponse("资产创建成功", created))
}

// ListAssets 获取场景的所有资产（按图层顺序）
// @Summary      资产列表
// @Tags         资产管理
// @Produce      json
// @Param        scene_id  path      string  true  "场景ID"
// @Success      200       {object}  http.SuccessResponse
// @Router       /api/v1/scenes/{scene_id}/assets [get]
func (h *Handler) ListAssets(c *gin.Context) {
	assets, err := h.composeService.ListAssets(c.Request.Context(), c.Param("scene_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, resp.NewErrorResponse(50001, err.Error()))
		return
	}

	c.JSON(http.StatusOK, resp.NewSuccessResponse("success", assets))
}

// UpdateAssetRequest 更新资产请求
type UpdateAssetRequest struct {
	AssetRequest
	SceneID string `json:"scene_id" binding:"required"` // 所属场景ID（必填，用于窗口校验）
}

// UpdateAsset 更新资产
// @Summary      更新资产
// @Tags         资产管理
// @Accept       json
// @Produce      json
// @Param        asset_id  path      string              true  "资产ID"
// @Param        request   body      UpdateAssetRequest  true  "更新资产请求"
// @Success      200       {object}  http.SuccessResponse
// @Failure      400       {object}  http.ErrorResponse
// @Router       /api/v1/assets/{asset_id} [put]
func (h *Handler) UpdateAsset(c *gin.Context) {
	var req UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, resp.NewErrorResponse(40001, "Invalid request body", err.Error()))
		return
	}

	asset := req.toAsset()
	asset.ID = c.Param("asset_id")
	asset.SceneID = req.SceneID

	if err := h.composeService.UpdateAsset(c.Request.Context(), asset); err != nil {
		c.JSON(http.StatusBadRequest, resp.NewErrorResponse(40002, err.Error()))
		return
	}

	c.JSON(http.StatusOK, resp.NewSuccessResponse("资产更新成功", nil))
}

// DeleteAsset 删除资产
// @Summary      删除资产
// @Tags         资产管理
// @Produce      json
// @Param        asset_id  path      string  true  "资产ID"
// @Success      200       {object}  http.SuccessResponse
// @Router       /api/v1/assets/{asset_id} [delete]
func (h *Handler) DeleteAsset(c *gin.Context) {
	if err := h.composeService.DeleteAsset(c.Request.Context(), c.Param("asset_id")); err != nil {
		c.JSON(http.StatusInternalServerError, resp.NewErrorResponse(50001, err.Error()))
		return
	}

	c.JSON(http.StatusOK, resp.NewSuccessResponse("资产删除成功", nil))
}
