package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yeisme/attachvault/pkg/internal/backend"
	"github.com/yeisme/attachvault/pkg/internal/model"
	"github.com/yeisme/attachvault/pkg/internal/repository"
	nlog "github.com/yeisme/attachvault/pkg/log"
	"github.com/yeisme/attachvault/pkg/metrics"
	"github.com/yeisme/attachvault/pkg/tracing"
)

// DeletionState 单次删除经历的阶段.
type DeletionState string

const (
	StateRequested             DeletionState = "requested"
	StatePolicyChecked         DeletionState = "policy_checked"
	StatePhysicalDeleteSkipped DeletionState = "physical_delete_skipped"
	StatePhysicalDeleted       DeletionState = "physical_deleted"
	StateRecordRemoved         DeletionState = "record_removed"
)

// DeletionOutcome 物理文件的处理结果.
type DeletionOutcome string

const (
	// OutcomeDeleted 文件已删除
	OutcomeDeleted DeletionOutcome = "physical_deleted"
	// OutcomeSkipped paranoid 引擎保留文件，或者存储引擎已不存在
	OutcomeSkipped DeletionOutcome = "physical_skipped"
	// OutcomeMissing 文件本来就不存在
	OutcomeMissing DeletionOutcome = "physical_missing"
	// OutcomeFailed 删除失败，文件可能残留
	OutcomeFailed DeletionOutcome = "physical_failed"
)

// DeletionCoordinator 按存储引擎的 paranoid 标记决定是否删除物理文件，最后总是移除元数据记录.
type DeletionCoordinator struct {
	registry    *StorageRegistry
	attachments *repository.Repository[model.Attachment]
	events      events
}

func newDeletionCoordinator(d deps, registry *StorageRegistry) *DeletionCoordinator {
	return &DeletionCoordinator{
		registry:    registry,
		attachments: repository.New[model.Attachment](d.db.DB),
		events:      events{mq: d.mq, cfg: d.cfg.Events},
	}
}

// Destroy 删除一条附件记录. 物理删除的问题只记录日志，返回的 error 只来自记录删除.
func (d *DeletionCoordinator) Destroy(ctx context.Context, att *model.Attachment) (DeletionOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "attachments.destroy_one")
	defer span.End()

	l := nlog.Logger().With().Uint("attachment", att.ID).Uint("storage_id", att.StorageID).Logger()
	transition(&l, StateRequested)

	st, err := d.registry.GetByID(ctx, att.StorageID)
	if err != nil {
		l.Warn().Err(err).Msg("storage not resolvable, physical delete skipped")

		st = nil
	}

	paranoid := st != nil && st.Paranoid
	storageName := ""

	if st != nil {
		storageName = st.Name
	}

	transition(&l, StatePolicyChecked, func(e *zerolog.Event) { e.Bool("paranoid", paranoid) })

	outcome := OutcomeSkipped

	if st != nil && !paranoid {
		outcome = d.deletePhysical(ctx, &l, st, att)
	}

	if outcome == OutcomeSkipped {
		transition(&l, StatePhysicalDeleteSkipped)
	} else {
		transition(&l, StatePhysicalDeleted, func(e *zerolog.Event) { e.Str("outcome", string(outcome)) })
	}

	q := repository.Query{FilterByTk: att.ID}

	// paranoid 引擎只打软删除标记，文件和记录都可以恢复
	if paranoid {
		_, err = d.attachments.Destroy(ctx, q)
	} else {
		_, err = d.attachments.ForceDestroy(ctx, q)
	}

	if err != nil {
		span.RecordError(err)

		return outcome, fmt.Errorf("remove attachment %d: %w", att.ID, err)
	}

	transition(&l, StateRecordRemoved)

	span.SetAttributes(attribute.String("storage", storageName), attribute.String("outcome", string(outcome)))
	metrics.DeletionsTotal.WithLabelValues(storageName, string(outcome)).Inc()

	retained := outcome == OutcomeSkipped || outcome == OutcomeFailed
	d.events.destroyed(ctx, att, storageName, outcome, retained)

	return outcome, nil
}

func (d *DeletionCoordinator) deletePhysical(ctx context.Context, l *zerolog.Logger, st *model.Storage, att *model.Attachment) DeletionOutcome {
	b, err := backend.Get(st.Type)
	if err != nil {
		l.Warn().Err(err).Str("storage", st.Name).Msg("backend not available, file retained")

		return OutcomeFailed
	}

	err = b.Delete(ctx, st, att.Path, att.Filename)
	if err == nil {
		return OutcomeDeleted
	}

	var warn *backend.DeleteWarning
	if errors.As(err, &warn) && warn.Missing {
		l.Warn().Str("storage", st.Name).Str("key", warn.Key).Msg("file already absent")

		return OutcomeMissing
	}

	l.Warn().Err(err).Str("storage", st.Name).Msg("physical delete failed, file retained")

	return OutcomeFailed
}

func transition(l *zerolog.Logger, state DeletionState, fields ...func(*zerolog.Event)) {
	e := l.Debug().Str("state", string(state))
	for _, f := range fields {
		f(e)
	}

	e.Msg("attachment deletion")
}
