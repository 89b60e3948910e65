package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/attachvault/pkg/configs"
	"github.com/yeisme/attachvault/pkg/internal/backend"
	"github.com/yeisme/attachvault/pkg/internal/model"
	"github.com/yeisme/attachvault/pkg/internal/repository"
	"github.com/yeisme/attachvault/pkg/internal/upload"
	nlog "github.com/yeisme/attachvault/pkg/log"
	"github.com/yeisme/attachvault/pkg/metrics"
	"github.com/yeisme/attachvault/pkg/tracing"
)

// Upload 一次上传的输入.
type Upload struct {
	Reader io.Reader
	// Filename 客户端提供的原始文件名
	Filename string
	// Size 未知时为 -1
	Size     int64
	Mimetype string
	// Storage 显式指定的存储引擎名称
	Storage string
	// Field 形如 customers.avatar 的字段，用来推断存储引擎
	Field string
	Meta  map[string]any
}

// AttachmentService 附件记录管理：上传写入、查询、删除和恢复.
type AttachmentService struct {
	attachments *repository.Repository[model.Attachment]
	registry    *StorageRegistry
	fields      *FieldService
	deletion    *DeletionCoordinator
	events      events
	parallel    int
}

// NewAttachmentService 从 context 获取依赖实例.
func NewAttachmentService(c context.Context) *AttachmentService {
	d := depsFrom(c)
	registry := newStorageRegistry(d)

	parallel := d.cfg.Upload.DeleteParallel
	if parallel <= 0 {
		parallel = configs.DefaultUploadDeleteParallel
	}

	return &AttachmentService{
		attachments: repository.New[model.Attachment](d.db.DB),
		registry:    registry,
		fields:      &FieldService{fields: repository.New[model.AttachmentField](d.db.DB), registry: registry},
		deletion:    newDeletionCoordinator(d, registry),
		events:      events{mq: d.mq, cfg: d.cfg.Events},
		parallel:    parallel,
	}
}

// ResolveStorage 按 显式名称 > 字段声明 > 默认引擎 的顺序确定目标存储引擎.
func (s *AttachmentService) ResolveStorage(ctx context.Context, name, field string) (*model.Storage, error) {
	if name != "" {
		st, err := s.registry.Get(ctx, name)
		if errors.Is(err, ErrNotFound) {
			return nil, configErrorf("storage %q not found", name)
		}

		return st, err
	}

	if field != "" {
		f, err := s.fields.Get(ctx, field)

		switch {
		case err == nil && f.Storage != "":
			st, err := s.registry.Get(ctx, f.Storage)
			if errors.Is(err, ErrNotFound) {
				return nil, configErrorf("storage %q of field %s not found", f.Storage, field)
			}

			return st, err
		case err != nil && !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}

	st, ok, err := s.registry.Default(ctx)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, configErrorf("no default storage configured")
	}

	return st, nil
}

// Create 校验并写入文件，然后创建附件记录. 校验失败时不写入任何字节，记录创建失败时删除已写入的文件.
func (s *AttachmentService) Create(ctx context.Context, up Upload) (*model.Attachment, error) {
	ctx, span := tracing.StartSpan(ctx, "attachments.create")
	defer span.End()

	st, err := s.ResolveStorage(ctx, up.Storage, up.Field)
	if err != nil {
		span.RecordError(err)

		return nil, err
	}

	span.SetAttributes(attribute.String("storage", st.Name))

	b, err := backend.Get(st.Type)
	if err != nil {
		return nil, configErrorf("%v", err)
	}

	mimetype, r, err := upload.DetectMimetype(up.Reader, up.Filename, up.Mimetype)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	size := up.Size

	// 大小未知时最多读入 rules.size+1 字节来判断是否超限
	if size < 0 && st.Rules.Size > 0 {
		buf, err := io.ReadAll(io.LimitReader(r, st.Rules.Size+1))
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}

		size = int64(len(buf))
		r = io.MultiReader(bytes.NewReader(buf), r)
	}

	if err := upload.Validate(upload.FileInfo{Size: size, Mimetype: mimetype}, st.Rules); err != nil {
		metrics.UploadsTotal.WithLabelValues(st.Name, metrics.ResultInvalid).Inc()

		return nil, err
	}

	res, err := b.Write(ctx, st, backend.File{Reader: r, Name: up.Filename, Size: size, Mimetype: mimetype})
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(st.Name, metrics.ResultError).Inc()
		span.RecordError(err)

		return nil, err
	}

	l := nlog.Logger()

	// 声明的大小与实际不符时以实际写入为准重新校验
	if st.Rules.Size > 0 && res.Size > st.Rules.Size {
		s.discard(ctx, b, st, res)
		metrics.UploadsTotal.WithLabelValues(st.Name, metrics.ResultInvalid).Inc()

		return nil, upload.Validate(upload.FileInfo{Size: res.Size, Mimetype: mimetype}, st.Rules)
	}

	title, extname := backend.SplitName(up.Filename)

	att := &model.Attachment{
		Title:     title,
		Extname:   extname,
		Filename:  res.Filename,
		Path:      res.Path,
		Size:      res.Size,
		Mimetype:  mimetype,
		Meta:      up.Meta,
		StorageID: st.ID,
	}

	if err := s.attachments.Create(ctx, att); err != nil {
		s.discard(ctx, b, st, res)
		metrics.UploadsTotal.WithLabelValues(st.Name, metrics.ResultError).Inc()
		span.RecordError(err)

		return nil, fmt.Errorf("create attachment: %w", err)
	}

	att.URL = b.URLFor(st, att.Path, att.Filename)

	metrics.UploadsTotal.WithLabelValues(st.Name, metrics.ResultOK).Inc()
	metrics.UploadBytesTotal.WithLabelValues(st.Name).Add(float64(att.Size))

	l.Debug().Uint("id", att.ID).Str("storage", st.Name).Str("filename", att.Filename).Int64("size", att.Size).Msg("attachment stored")

	s.events.stored(ctx, att, st.Name, up.Field)

	return att, nil
}

// discard 撤销已写入的文件.
func (s *AttachmentService) discard(ctx context.Context, b backend.Backend, st *model.Storage, res *backend.Result) {
	if err := b.Delete(ctx, st, res.Path, res.Filename); err != nil {
		l := nlog.Logger()
		l.Warn().Err(err).Str("storage", st.Name).Str("filename", res.Filename).Msg("failed to remove orphaned file")
	}
}

// Get 按主键查找附件并计算 url.
func (s *AttachmentService) Get(ctx context.Context, id uint) (*model.Attachment, error) {
	att, err := s.attachments.FindOne(ctx, repository.Query{FilterByTk: id})
	if err != nil {
		return nil, err
	}

	s.fillURL(ctx, att)

	return att, nil
}

// List 分页列出附件，按 id 倒序.
func (s *AttachmentService) List(ctx context.Context, page, pageSize int) ([]model.Attachment, int64, error) {
	return s.list(ctx, repository.Query{Sort: []string{"-id"}, Page: page, PageSize: pageSize})
}

// ListTrashed 分页列出 paranoid 引擎下被软删除的附件.
func (s *AttachmentService) ListTrashed(ctx context.Context, page, pageSize int) ([]model.Attachment, int64, error) {
	return s.list(ctx, repository.Query{Sort: []string{"-deleted_at"}, Page: page, PageSize: pageSize, Trashed: true})
}

func (s *AttachmentService) list(ctx context.Context, q repository.Query) ([]model.Attachment, int64, error) {
	total, err := s.attachments.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.attachments.Find(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	for i := range rows {
		s.fillURL(ctx, &rows[i])
	}

	return rows, total, nil
}

func (s *AttachmentService) fillURL(ctx context.Context, att *model.Attachment) {
	st, err := s.registry.GetByID(ctx, att.StorageID)
	if err != nil {
		return
	}

	if b, err := backend.Get(st.Type); err == nil {
		att.URL = b.URLFor(st, att.Path, att.Filename)
	}
}

// Destroy 删除匹配的附件，每条记录独立交给 DeletionCoordinator，返回删除的记录数.
// 单条失败不会中止其他记录，返回第一个失败.
func (s *AttachmentService) Destroy(ctx context.Context, ids ...uint) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	ctx, span := tracing.StartSpan(ctx, "attachments.destroy")
	defer span.End()

	rows, err := s.attachments.Find(ctx, repository.Query{FilterByTk: ids})
	if err != nil {
		return 0, err
	}

	var (
		g       errgroup.Group
		removed = make([]bool, len(rows))
	)

	g.SetLimit(s.parallel)

	for i := range rows {
		g.Go(func() error {
			if _, err := s.deletion.Destroy(ctx, &rows[i]); err != nil {
				return err
			}

			removed[i] = true

			return nil
		})
	}

	err = g.Wait()

	n := 0

	for _, ok := range removed {
		if ok {
			n++
		}
	}

	span.SetAttributes(attribute.Int("requested", len(ids)), attribute.Int("removed", n))

	return n, err
}

// Restore 恢复回收站中的附件.
func (s *AttachmentService) Restore(ctx context.Context, id uint) (*model.Attachment, error) {
	n, err := s.attachments.Update(ctx, repository.Query{FilterByTk: id, Trashed: true}, map[string]any{"deleted_at": nil})
	if err != nil {
		return nil, fmt.Errorf("restore attachment %d: %w", id, err)
	}

	if n == 0 {
		return nil, ErrNotFound
	}

	att, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	storage := ""
	if st, err := s.registry.GetByID(ctx, att.StorageID); err == nil {
		storage = st.Name
	}

	s.events.restored(ctx, att, storage)

	return att, nil
}
