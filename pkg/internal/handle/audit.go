package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/firmvault/pkg/errs"
	"github.com/yeisme/firmvault/pkg/internal/service"
	"github.com/yeisme/firmvault/pkg/internal/types"
)

// ListAudit 查询审计日志，新记录在前.
//
//	@Summary	审计日志
//	@Tags		审计
//	@Produce	json
//	@Param		action		query		string	false	"按动作过滤，如 version.upload"
//	@Param		entity_type	query		string	false	"按实体类型过滤，如 app"
//	@Param		limit		query		int		false	"返回条数，默认 50，最大 500"
//	@Param		offset		query		int		false	"偏移量"
//	@Success	200			{object}	types.ListAuditResponse
//	@Router		/api/v1/audit [get]
//	@Security	BearerAuth
func ListAudit(c *gin.Context) {
	var req types.ListAuditRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, errs.Validation("Invalid query parameters").WithCause(err))
		return
	}

	ctx := c.Request.Context()

	resp, err := service.NewAuditService(ctx).List(ctx, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
