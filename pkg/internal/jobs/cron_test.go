package jobs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/attachvault/pkg/configs"
	"github.com/yeisme/attachvault/pkg/internal/backend"
	"github.com/yeisme/attachvault/pkg/internal/jobs"
	"github.com/yeisme/attachvault/pkg/internal/service"
	"github.com/yeisme/attachvault/pkg/internal/testutil"
	"github.com/yeisme/attachvault/pkg/scheduler"
)

func writeFile(t *testing.T, p string, mod time.Time) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(p, mod, mod))
}

func TestSweepTempFiles(t *testing.T) {
	env := testutil.New(t)

	_, err := service.NewStorageRegistry(env.Ctx).EnsureDefaultStorage(env.Ctx)
	require.NoError(t, err)

	old := time.Now().Add(-2 * time.Hour)
	staleTemp := filepath.Join(env.Root, "2024", backend.TempPrefix+"abc")
	freshTemp := filepath.Join(env.Root, backend.TempPrefix+"def")
	regular := filepath.Join(env.Root, "report.txt")

	writeFile(t, staleTemp, old)
	writeFile(t, freshTemp, time.Now())
	writeFile(t, regular, old)

	n, err := jobs.SweepTempFiles(env.Ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NoFileExists(t, staleTemp)
	assert.FileExists(t, freshTemp)
	assert.FileExists(t, regular)
}

func TestSweepTempFilesMissingRoot(t *testing.T) {
	env := testutil.New(t)

	_, err := service.NewStorageRegistry(env.Ctx).EnsureDefaultStorage(env.Ctx)
	require.NoError(t, err)

	n, err := jobs.SweepTempFiles(env.Ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegisterCronJobs(t *testing.T) {
	env := testutil.New(t)

	sched, err := scheduler.NewScheduler()
	require.NoError(t, err)

	sched.Start()
	t.Cleanup(func() { _ = sched.Shutdown() })

	require.Error(t, jobs.RegisterCronJobs(nil, env.Manager, env.Config.Upload))
	require.NoError(t, jobs.RegisterCronJobs(sched, env.Manager, env.Config.Upload))

	info, err := sched.GetJobInfoByName(jobs.JobTempSweep)
	require.NoError(t, err)
	assert.Equal(t, configs.DefaultTempSweepCron, info.CronExpr)
}
