package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	minio "github.com/minio/minio-go/v7"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yeisme/attachvault/pkg/configs"
	"github.com/yeisme/attachvault/pkg/internal/model"
	s3c "github.com/yeisme/attachvault/pkg/internal/storage/s3"
	"github.com/yeisme/attachvault/pkg/tracing"
)

// S3Options 对象存储后端参数，缺省值取全局 s3 配置.
type S3Options struct {
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	UseSSL          *bool  `json:"useSSL,omitempty"`
}

// S3 S3 兼容对象存储后端，客户端按连接参数缓存.
type S3 struct {
	mu      sync.Mutex
	clients map[uint64]*s3c.Client
}

func init() {
	Register(model.StorageTypeS3, &S3{clients: map[uint64]*s3c.Client{}})
}

// s3Config 合并存储引擎参数与全局默认值.
func s3Config(st *model.Storage) (configs.S3Config, error) {
	cfg := configs.GetConfig().S3

	var opts S3Options
	if err := decodeOptions(st.Options, &opts); err != nil {
		return cfg, err
	}

	if opts.Endpoint != "" {
		cfg.Endpoint = opts.Endpoint
	}

	if opts.AccessKeyID != "" {
		cfg.AccessKeyID = opts.AccessKeyID
	}

	if opts.SecretAccessKey != "" {
		cfg.SecretAccessKey = opts.SecretAccessKey
	}

	if opts.Bucket != "" {
		cfg.Bucket = opts.Bucket
	}

	if opts.Region != "" {
		cfg.Region = opts.Region
	}

	if opts.UseSSL != nil {
		cfg.UseSSL = *opts.UseSSL
	}

	return cfg, nil
}

func (s *S3) client(ctx context.Context, st *model.Storage) (*s3c.Client, error) {
	cfg, err := s3Config(st)
	if err != nil {
		return nil, err
	}

	raw, err := sonic.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	key := xxhash.Sum64(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[key]; ok {
		return c, nil
	}

	c, err := s3c.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s.clients[key] = c

	return c, nil
}

// objectKey 对象键为 path/filename.
func objectKey(path, filename string) string {
	return strings.TrimPrefix(JoinURL("", path, filename), "/")
}

// Write 流式上传对象，大小未知时由 minio 分片.
func (s *S3) Write(ctx context.Context, st *model.Storage, f File) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "backend.s3.write")
	defer span.End()

	cli, err := s.client(ctx, st)
	if err != nil {
		return nil, &WriteError{Op: "connect", Storage: st.Name, Err: err}
	}

	sub, err := CleanSubpath(st.Path)
	if err != nil {
		return nil, &WriteError{Op: "resolve", Storage: st.Name, Err: err}
	}

	filename := NewFilename(f.Name)

	size := f.Size
	if size <= 0 {
		size = -1
	}

	info, err := cli.PutObject(ctx, cli.Bucket, objectKey(sub, filename), f.Reader, size, minio.PutObjectOptions{
		ContentType: f.Mimetype,
	})
	if err != nil {
		return nil, &WriteError{Op: "put", Storage: st.Name, Err: err}
	}

	span.SetAttributes(attribute.String("storage", st.Name), attribute.Int64("size", info.Size))

	return &Result{Filename: filename, Path: sub, Size: info.Size}, nil
}

// Delete 删除对象；对象不存在时返回 Missing 的 DeleteWarning.
func (s *S3) Delete(ctx context.Context, st *model.Storage, path, filename string) error {
	ctx, span := tracing.StartSpan(ctx, "backend.s3.delete")
	defer span.End()

	key := objectKey(path, filename)

	cli, err := s.client(ctx, st)
	if err != nil {
		return &DeleteWarning{Storage: st.Name, Key: key, Err: err}
	}

	if _, err := cli.StatObject(ctx, cli.Bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return &DeleteWarning{Storage: st.Name, Key: key, Missing: true}
		}

		return &DeleteWarning{Storage: st.Name, Key: key, Err: err}
	}

	if err := cli.RemoveObject(ctx, cli.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return &DeleteWarning{Storage: st.Name, Key: key, Err: err}
	}

	return nil
}

// URLFor baseUrl 为空时使用 endpoint/bucket 直连地址.
func (s *S3) URLFor(st *model.Storage, path, filename string) string {
	if st.BaseURL != "" {
		return JoinURL(st.BaseURL, path, filename)
	}

	cfg, err := s3Config(st)
	if err != nil {
		return JoinURL("", path, filename)
	}

	scheme := "http"
	host := cfg.Endpoint

	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		host = u.Host
		if u.Scheme == "https" {
			cfg.UseSSL = true
		}
	}

	if cfg.UseSSL {
		scheme = "https"
	}

	return JoinURL(fmt.Sprintf("%s://%s/%s", scheme, host, cfg.Bucket), path, filename)
}

// Check 确认 bucket 可访问.
func (s *S3) Check(ctx context.Context, st *model.Storage) error {
	cli, err := s.client(ctx, st)
	if err != nil {
		return err
	}

	return cli.HealthCheck(ctx)
}
