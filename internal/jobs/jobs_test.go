package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emrgen/ingest/internal/model"
	"github.com/emrgen/ingest/internal/preview"
	"github.com/emrgen/ingest/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type slowJob struct {
	runs    atomic.Int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *slowJob) Schedule() string { return "@every 1s" }

func (s *slowJob) Run() {
	s.runs.Add(1)
	s.once.Do(func() { close(s.started) })
	<-s.release
}

func TestRunExclusive(t *testing.T) {
	var mu sync.Mutex
	running := NewTaskExecutor(nil, nil).runningCronJobs
	job := &slowJob{started: make(chan struct{}), release: make(chan struct{})}

	done := make(chan struct{})
	go func() {
		runExclusive[CronJob](&mu, running, job)
		close(done)
	}()
	<-job.started

	// the second run is skipped and must not leave the lock held
	runExclusive[CronJob](&mu, running, job)
	assert.Equal(t, int32(1), job.runs.Load())

	close(job.release)
	<-done
	assert.False(t, running.Contains(job))

	runExclusive[CronJob](&mu, running, job)
	assert.Equal(t, int32(2), job.runs.Load())
}

func TestTaskExecutor_BadSchedule(t *testing.T) {
	executor := NewTaskExecutor(nil, []CronJob{NewPreviewSweepTask("not a schedule", preview.NewMemoryChannel(time.Minute))})
	assert.Error(t, executor.Run())
}

func TestPreviewSweepTask(t *testing.T) {
	ch := preview.NewMemoryChannel(time.Minute)
	ctx := context.TODO()
	_, err := ch.Put(ctx, preview.Handoff{Kind: model.KindLesson, CreatedAt: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	_, err = ch.Put(ctx, preview.Handoff{Kind: model.KindLesson})
	require.NoError(t, err)

	NewPreviewSweepTask("@every 1m", ch).Run()
	assert.Equal(t, 1, ch.Len())
}

func TestLibraryStatsTask(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.TODO()

	lesson := model.NewRecord("Photosynthesis", "Ada", model.KindLesson, `{}`)
	require.NoError(t, st.AppendRecord(ctx, lesson))
	require.NoError(t, st.AppendRecord(ctx, lesson.DeriveVersion("Photosynthesis (v2)", "Grace", `{}`)))
	require.NoError(t, st.AppendRecord(ctx, model.NewRecord("Lab", "Ada", model.KindActivity, `{}`)))

	task := NewLibraryStatsTask("@every 1m", st)
	task.Run()

	stats := task.Last()
	assert.Equal(t, 2, stats.Records[model.KindLesson])
	assert.Equal(t, 1, stats.Records[model.KindActivity])
	assert.Equal(t, 0, stats.Records[model.KindItemList])
	assert.Equal(t, 2, stats.Chains)
	assert.Equal(t, 2, stats.Uploaders)
}
