package service

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/attachvault/pkg/configs"
	"github.com/yeisme/attachvault/pkg/internal/model"
	"github.com/yeisme/attachvault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/attachvault/pkg/log"
	"github.com/yeisme/attachvault/pkg/queue"
)

const producer = "attachvault"

// events 尽力发布附件生命周期事件，失败只记录日志.
type events struct {
	mq  *mq.Client
	cfg configs.EventsConfig
}

func (e events) enabled(topicOn bool) bool {
	return e.mq != nil && e.cfg.Enabled && topicOn
}

func headerOpts(ctx context.Context) []func(*queue.EventHeader) {
	opts := []func(*queue.EventHeader){queue.WithProducer(producer)}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	return opts
}

func attachmentRef(att *model.Attachment, storage string) queue.AttachmentRef {
	return queue.AttachmentRef{
		ID:       att.ID,
		Storage:  storage,
		Filename: att.Filename,
		Path:     att.Path,
		Size:     att.Size,
		Mimetype: att.Mimetype,
		URL:      att.URL,
	}
}

func (e events) stored(ctx context.Context, att *model.Attachment, storage, field string) {
	if !e.enabled(e.cfg.Attachment.Stored) {
		return
	}

	payload := queue.AttachmentStoredPayload{Attachment: attachmentRef(att, storage), Field: field}
	if err := queue.PublishAttachmentStored(e.mq.Publisher(), payload, headerOpts(ctx)...); err != nil {
		l := nlog.Logger()
		l.Warn().Err(err).Uint("id", att.ID).Msg("publish attachment stored event failed")
	}
}

func (e events) destroyed(ctx context.Context, att *model.Attachment, storage string, outcome DeletionOutcome, retained bool) {
	if !e.enabled(e.cfg.Attachment.Destroyed) {
		return
	}

	payload := queue.AttachmentDestroyedPayload{
		Attachment: attachmentRef(att, storage),
		Outcome:    string(outcome),
		Retained:   retained,
	}
	if err := queue.PublishAttachmentDestroyed(e.mq.Publisher(), payload, headerOpts(ctx)...); err != nil {
		l := nlog.Logger()
		l.Warn().Err(err).Uint("id", att.ID).Msg("publish attachment destroyed event failed")
	}
}

func (e events) restored(ctx context.Context, att *model.Attachment, storage string) {
	if !e.enabled(e.cfg.Attachment.Restored) {
		return
	}

	payload := queue.AttachmentRestoredPayload{Attachment: attachmentRef(att, storage)}
	if err := queue.PublishAttachmentRestored(e.mq.Publisher(), payload, headerOpts(ctx)...); err != nil {
		l := nlog.Logger()
		l.Warn().Err(err).Uint("id", att.ID).Msg("publish attachment restored event failed")
	}
}
