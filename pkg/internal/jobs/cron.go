// Package jobs 负责注册与实现定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yeisme/attachvault/pkg/configs"
	ctxPkg "github.com/yeisme/attachvault/pkg/context"
	"github.com/yeisme/attachvault/pkg/internal/backend"
	"github.com/yeisme/attachvault/pkg/internal/model"
	"github.com/yeisme/attachvault/pkg/internal/service"
	"github.com/yeisme/attachvault/pkg/internal/storage"
	"github.com/yeisme/attachvault/pkg/log"
	"github.com/yeisme/attachvault/pkg/scheduler"
)

// RegisterCronJobs 配置定时任务：
//   - 按 upload.temp_sweep_cron 清理本地存储中写入中断残留的临时文件
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager, cfg configs.UploadConfig) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	if cfg.TempSweepCron != "" {
		maxAge := cfg.TempMaxAge
		if err := sched.AddCron(baseCtx, JobTempSweep, cfg.TempSweepCron, func(ctx context.Context) error {
			_, err := SweepTempFiles(ctx, time.Now().Add(-maxAge))
			return err
		}); err != nil {
			return err
		}
	}

	return nil
}

// SweepTempFiles 删除所有本地存储根目录下修改时间早于 before 的临时文件，返回删除数量.
// 单个存储失败不影响其它存储，最后返回合并的错误.
func SweepTempFiles(ctx context.Context, before time.Time) (int, error) {
	l := log.Logger().With().Str("job", JobTempSweep).Logger()

	storages, err := service.NewStorageRegistry(ctx).List(ctx)
	if err != nil {
		return 0, err
	}

	var (
		total int
		errs  []error
		seen  = make(map[string]struct{})
	)

	for i := range storages {
		st := &storages[i]
		if st.Type != model.StorageTypeLocal {
			continue
		}

		root, err := backend.LocalRoot(st)
		if err != nil {
			errs = append(errs, fmt.Errorf("storage %s: %w", st.Name, err))
			continue
		}

		// 多个引擎可能共用同一个根目录
		if _, ok := seen[root]; ok {
			continue
		}

		seen[root] = struct{}{}

		n, err := sweepRoot(ctx, root, before)
		total += n

		if err != nil {
			l.Error().Err(err).Str("storage", st.Name).Msg("sweep temp files failed")
			errs = append(errs, fmt.Errorf("storage %s: %w", st.Name, err))

			continue
		}

		if n > 0 {
			l.Info().Str("storage", st.Name).Int("removed", n).Time("before", before).Msg("swept temp files")
		}
	}

	return total, errors.Join(errs...)
}

func sweepRoot(ctx context.Context, root string, before time.Time) (int, error) {
	removed := 0

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// 根目录还没有创建
			if errors.Is(err, fs.ErrNotExist) && p == root {
				return filepath.SkipDir
			}

			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() || !strings.HasPrefix(d.Name(), backend.TempPrefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}

			return err
		}

		if !info.ModTime().Before(before) {
			return nil
		}

		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		removed++

		return nil
	})

	return removed, err
}
