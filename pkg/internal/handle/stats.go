package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/firmvault/pkg/internal/service"
)

// GetStats 返回注册中心的汇总统计.
//
//	@Summary	汇总统计
//	@Tags		统计
//	@Produce	json
//	@Success	200	{object}	types.StatsResponse
//	@Router		/api/v1/stats [get]
//	@Security	BearerAuth
func GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	resp, err := service.NewStatsService(ctx).Get(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
