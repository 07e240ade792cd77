package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/firmvault/pkg/configs"
	"github.com/yeisme/firmvault/pkg/errs"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/internal/types"
	flog "github.com/yeisme/firmvault/pkg/log"
	"github.com/yeisme/firmvault/pkg/queue"
)

// AuditService 审计日志服务.写入走事件总线异步落库（fire-and-forget），
// 查询与保留期清理直接访问数据库.
type AuditService struct {
	registryService
}

// NewAuditService 创建并返回一个新的 AuditService 实例.
func NewAuditService(c context.Context) *AuditService {
	return &AuditService{newRegistryService(c)}
}

// Record 记录一次审计事件.任何失败只记日志，绝不影响触发它的操作.
func (s *AuditService) Record(ctx context.Context, action, entityType, entityID string, token *Token, actorIP string, details any) {
	if !configs.GetConfig().Audit.Enabled {
		return
	}

	var detailsJSON string

	if details != nil {
		if b, err := sonic.Marshal(details); err == nil {
			detailsJSON = string(b)
		}
	}

	payload := queue.AuditRecordedPayload{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorIP:    actorIP,
		Details:    detailsJSON,
	}
	if token != nil {
		payload.ActorKeyID = token.KeyID
	}

	if pub := s.mqc.Publisher(); pub != nil {
		if err := queue.PublishAuditRecorded(pub, payload, queue.WithProducer("firmvault")); err == nil {
			return
		}
	}

	// 事件总线不可用时直接落库，仍然不向调用方传播错误
	if err := s.insert(&payload); err != nil {
		flog.Logger().Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}

// insert 将审计负载写入数据库.
func (s *AuditService) insert(p *queue.AuditRecordedPayload) error {
	entry := model.AuditLog{
		Action:     p.Action,
		EntityType: p.EntityType,
		EntityID:   p.EntityID,
		ActorKeyID: p.ActorKeyID,
		ActorIP:    p.ActorIP,
		Details:    p.Details,
	}

	return s.dbc.DB.Create(&entry).Error
}

// RunWriter 订阅审计主题并逐条落库，随 ctx 取消退出.应在启动时以 goroutine 运行.
func (s *AuditService) RunWriter(ctx context.Context) error {
	if s.mqc == nil {
		return nil
	}

	ch, err := s.mqc.Subscribe(ctx, queue.TopicAuditRecorded)
	if err != nil {
		return err
	}

	for msg := range ch {
		env, err := queue.ParseAuditRecorded(msg)
		if err != nil {
			flog.Logger().Warn().Err(err).Msg("malformed audit event")
			msg.Ack()

			continue
		}

		if err := s.insert(&env.Payload); err != nil {
			flog.Logger().Warn().Err(err).Str("action", env.Payload.Action).Msg("audit write failed")
		}

		msg.Ack()
	}

	return nil
}

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// List 查询审计日志，新记录在前，支持 action/entity_type/entity_id 过滤与分页.
func (s *AuditService) List(ctx context.Context, req *types.ListAuditRequest) (*types.ListAuditResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	q := s.dbc.DB.WithContext(ctx).Model(&model.AuditLog{})
	if req.Action != "" {
		q = q.Where("action = ?", req.Action)
	}

	if req.EntityType != "" {
		q = q.Where("entity_type = ?", req.EntityType)
	}

	if req.EntityID != "" {
		q = q.Where("entity_id = ?", req.EntityID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, errs.Database(err)
	}

	var rows []model.AuditLog
	if err := q.Order("id DESC").Limit(limit).Offset(req.Offset).Find(&rows).Error; err != nil {
		return nil, errs.Database(err)
	}

	entries := make([]types.AuditEntryResponse, 0, len(rows))
	for i := range rows {
		entries = append(entries, types.ToAuditEntryResponse(&rows[i]))
	}

	return &types.ListAuditResponse{Entries: entries, Total: total}, nil
}

// Prune 删除超出保留期的审计日志，返回删除行数.由定时任务调用.
func (s *AuditService) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)

	res := s.dbc.DB.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.AuditLog{})
	if res.Error != nil {
		return 0, errs.Database(res.Error)
	}

	return res.RowsAffected, nil
}
