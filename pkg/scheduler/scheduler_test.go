package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAddCronRunNow 立即运行任务并记录状态.
func TestAddCronRunNow(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)

	s.Start()
	defer s.Shutdown()

	var runs atomic.Int32

	require.NoError(t, s.AddCron(context.Background(), "test.ok", "0 0 1 1 *", func(context.Context) error {
		runs.Add(1)

		return nil
	}))

	require.Error(t, s.AddCron(context.Background(), "test.ok", "0 0 1 1 *", func(context.Context) error { return nil }))

	require.NoError(t, s.RunNow("test.ok"))

	require.Eventually(t, func() bool {
		info, err := s.GetJobInfoByName("test.ok")

		return err == nil && info.Runs == 1
	}, 5*time.Second, 20*time.Millisecond)

	info, err := s.GetJobInfoByName("test.ok")
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, info.Status)
	assert.False(t, info.LastSuccess.IsZero())
	assert.Equal(t, int32(1), runs.Load())
	_, err = uuid.Parse(info.ID)
	assert.NoError(t, err)
}

// TestJobErrorAndPanic 任务出错或 panic 时状态为 error.
func TestJobErrorAndPanic(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)

	s.Start()
	defer s.Shutdown()

	require.NoError(t, s.AddCron(context.Background(), "test.err", "0 0 1 1 *", func(context.Context) error {
		return errors.New("boom")
	}))
	require.NoError(t, s.AddCron(context.Background(), "test.panic", "0 0 1 1 *", func(context.Context) error {
		panic("oops")
	}))

	require.NoError(t, s.RunNow("test.err"))
	require.NoError(t, s.RunNow("test.panic"))

	require.Eventually(t, func() bool {
		a, _ := s.GetJobInfoByName("test.err")
		b, _ := s.GetJobInfoByName("test.panic")

		return a.Status == StatusError && b.Status == StatusError
	}, 5*time.Second, 20*time.Millisecond)

	infos := s.GetJobInfos()
	require.Len(t, infos, 2)
	assert.Equal(t, "test.err", infos[0].Name)
	assert.Equal(t, "boom", infos[0].Error)
	assert.Contains(t, infos[1].Error, "oops")

	require.NoError(t, s.RemoveJobByName("test.err"))
	assert.Len(t, s.GetJobInfos(), 1)
}
