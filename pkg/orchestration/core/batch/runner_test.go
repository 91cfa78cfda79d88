package batch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	port "github.com/tigerroll/pdfflow/pkg/orchestration/core/application/port"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/batch"
	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
	"github.com/tigerroll/pdfflow/pkg/orchestration/core/handler"
	"github.com/tigerroll/pdfflow/pkg/orchestration/infrastructure/repository/inmemory"
	"github.com/tigerroll/pdfflow/pkg/orchestration/support/util/exception"
)

// recordingStore captures every persisted progress snapshot.
type recordingStore struct {
	*inmemory.InMemoryJobStore
	mu        sync.Mutex
	snapshots []model.Progress
}

func (s *recordingStore) UpdateBatchJob(ctx context.Context, job *model.BatchJob) error {
	s.mu.Lock()
	s.snapshots = append(s.snapshots, job.Progress)
	s.mu.Unlock()
	return s.InMemoryJobStore.UpdateBatchJob(ctx, job)
}

type MockBatchJobListener struct {
	mock.Mock
}

func (m *MockBatchJobListener) BeforeBatch(ctx context.Context, job *model.BatchJob) {
	m.Called(ctx, job)
}

func (m *MockBatchJobListener) AfterBatch(ctx context.Context, job *model.BatchJob) {
	m.Called(ctx, job)
}

func failOn(bad string) handler.Handler {
	return handler.HandlerFunc(func(ctx context.Context, req handler.Request) (handler.Response, error) {
		if req.Item == bad {
			return handler.Response{}, errors.New("corrupt file")
		}
		return handler.Response{Outputs: []string{req.OutputTarget + "/" + req.Item}}, nil
	})
}

func setup(t *testing.T, h handler.Handler, listeners *port.Listeners, opts batch.Options) (*recordingStore, *batch.Runner) {
	t.Helper()
	store := &recordingStore{InMemoryJobStore: inmemory.NewInMemoryJobStore()}
	reg, err := handler.NewRegistry(handler.Entry{Name: "compress", Handler: h})
	require.NoError(t, err)
	return store, batch.NewRunner(store, reg, listeners, nil, nil, opts)
}

func submit(t *testing.T, store *recordingStore, op string, items []string, stopOnError bool) *model.BatchJob {
	t.Helper()
	job := model.NewBatchJob("", op, items, "/out", map[string]interface{}{"level": "high"}, stopOnError)
	require.NoError(t, store.SaveBatchJob(context.Background(), job))
	return job
}

func load(t *testing.T, store *recordingStore, id string) *model.BatchJob {
	t.Helper()
	job, err := store.FindBatchJobByID(context.Background(), id)
	require.NoError(t, err)
	return job
}

func TestRun_ErrorIsolation(t *testing.T) {
	store, runner := setup(t, failOn("2.pdf"), nil, batch.Options{})
	job := submit(t, store, "compress", []string{"1.pdf", "2.pdf", "3.pdf"}, false)

	require.NoError(t, runner.Run(context.Background(), job.ID))

	got := load(t, store, job.ID)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, 2, got.Progress.Completed)
	assert.Equal(t, 1, got.Progress.Failed)
	assert.Equal(t, float64(100), got.Progress.Percentage)
	require.NotNil(t, got.Result)
	assert.False(t, got.Result.Success)
	require.Len(t, got.Result.OutputFiles, 2)
	assert.Equal(t, "1.pdf", got.Result.OutputFiles[0].Item)
	assert.Equal(t, []string{"/out/1.pdf"}, got.Result.OutputFiles[0].Outputs)
	assert.Equal(t, "3.pdf", got.Result.OutputFiles[1].Item)
	assert.Equal(t, []string{"2.pdf"}, got.Result.FailedFiles)
	require.Len(t, got.Result.Errors, 1)
	assert.Equal(t, "corrupt file", got.Result.Errors[0].Error)
	assert.Equal(t, string(exception.CodeProcessing), got.Result.Errors[0].Code)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.Progress.CurrentItem)
}

func TestRun_AllSucceed(t *testing.T) {
	store, runner := setup(t, failOn(""), nil, batch.Options{})
	job := submit(t, store, "compress", []string{"a.pdf", "b.pdf"}, false)

	require.NoError(t, runner.Run(context.Background(), job.ID))

	got := load(t, store, job.ID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.True(t, got.Result.Success)
	assert.Len(t, got.Result.OutputFiles, 2)
	assert.Empty(t, got.Result.Errors)
}

func TestRun_CancelAfterThirdItem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls []string
	h := handler.HandlerFunc(func(_ context.Context, req handler.Request) (handler.Response, error) {
		calls = append(calls, req.Item)
		if req.Item == "4" {
			// Requested while item 4 is in flight; its result must be discarded.
			cancel()
		}
		return handler.Response{Outputs: []string{req.Item + ".out"}}, nil
	})
	store, runner := setup(t, h, nil, batch.Options{})
	items := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	job := submit(t, store, "compress", items, false)

	require.NoError(t, runner.Run(ctx, job.ID))

	got := load(t, store, job.ID)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.Equal(t, 3, got.Progress.Completed)
	assert.Equal(t, 0, got.Progress.Failed)
	assert.Equal(t, []string{"1", "2", "3", "4"}, calls)
	require.NotNil(t, got.Result)
	assert.Len(t, got.Result.OutputFiles, 3)
	for _, o := range got.Result.OutputFiles {
		assert.NotContains(t, []string{"4", "5", "6", "7", "8", "9", "10"}, o.Item)
	}
	assert.Empty(t, got.Result.FailedFiles)

	for _, p := range store.snapshots {
		assert.LessOrEqual(t, p.Completed+p.Failed, p.Total)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	called := false
	h := handler.HandlerFunc(func(context.Context, handler.Request) (handler.Response, error) {
		called = true
		return handler.Response{}, nil
	})
	store, runner := setup(t, h, nil, batch.Options{})
	job := submit(t, store, "compress", []string{"a.pdf"}, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, runner.Run(ctx, job.ID))

	got := load(t, store, job.ID)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.False(t, called)
	assert.Nil(t, got.StartedAt)
}

func TestRun_StopOnError(t *testing.T) {
	store, runner := setup(t, failOn("1.pdf"), nil, batch.Options{})
	job := submit(t, store, "compress", []string{"1.pdf", "2.pdf", "3.pdf"}, true)

	require.NoError(t, runner.Run(context.Background(), job.ID))

	got := load(t, store, job.ID)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, 0, got.Progress.Completed)
	assert.Equal(t, 1, got.Progress.Failed)
	assert.Equal(t, []string{"1.pdf"}, got.Result.FailedFiles)
	assert.Empty(t, got.Result.OutputFiles)
}

func TestRun_EmptyBatch(t *testing.T) {
	store, runner := setup(t, failOn(""), nil, batch.Options{})
	job := submit(t, store, "compress", nil, false)

	require.NoError(t, runner.Run(context.Background(), job.ID))

	got := load(t, store, job.ID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, float64(0), got.Progress.Percentage)
	require.NotNil(t, got.Result)
	assert.True(t, got.Result.Success)
	assert.Empty(t, got.Result.OutputFiles)
	assert.Empty(t, got.Result.FailedFiles)
	assert.Empty(t, got.Result.Errors)
}

func TestRun_UnknownOperationFailsBeforeAnyItem(t *testing.T) {
	store, runner := setup(t, failOn(""), nil, batch.Options{})
	job := submit(t, store, "ocr", []string{"a.pdf", "b.pdf"}, false)

	require.NoError(t, runner.Run(context.Background(), job.ID))

	got := load(t, store, job.ID)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, 0, got.Progress.Processed())
	require.Len(t, got.Result.Errors, 1)
	assert.Equal(t, string(exception.CodeUnknownOperation), got.Result.Errors[0].Code)
}

func TestRun_HandlerTimeout(t *testing.T) {
	h := handler.HandlerFunc(func(ctx context.Context, req handler.Request) (handler.Response, error) {
		if req.Item == "slow.pdf" {
			time.Sleep(200 * time.Millisecond)
		}
		return handler.Response{Outputs: []string{req.Item}}, nil
	})
	store, runner := setup(t, h, nil, batch.Options{HandlerTimeout: 20 * time.Millisecond})
	job := submit(t, store, "compress", []string{"fast.pdf", "slow.pdf"}, false)

	require.NoError(t, runner.Run(context.Background(), job.ID))

	got := load(t, store, job.ID)
	assert.Equal(t, model.StatusFailed, got.Status)
	require.Len(t, got.Result.Errors, 1)
	assert.Equal(t, "slow.pdf", got.Result.Errors[0].Item)
	assert.Equal(t, string(exception.CodeTimeout), got.Result.Errors[0].Code)
}

func TestRun_ProgressIsMonotonic(t *testing.T) {
	store, runner := setup(t, failOn("c"), nil, batch.Options{})
	job := submit(t, store, "compress", []string{"a", "b", "c", "d", "e", "f", "g"}, false)

	require.NoError(t, runner.Run(context.Background(), job.ID))

	require.NotEmpty(t, store.snapshots)
	last := -1.0
	for _, p := range store.snapshots {
		assert.GreaterOrEqual(t, p.Percentage, last)
		assert.LessOrEqual(t, p.Completed+p.Failed, p.Total)
		last = p.Percentage
	}
}

func TestRun_NotifiesListeners(t *testing.T) {
	l := new(MockBatchJobListener)
	l.On("BeforeBatch", mock.Anything, mock.MatchedBy(func(j *model.BatchJob) bool { return j.Status == model.StatusRunning })).Once()
	l.On("AfterBatch", mock.Anything, mock.MatchedBy(func(j *model.BatchJob) bool { return j.Status == model.StatusCompleted })).Once()

	store, runner := setup(t, failOn(""), &port.Listeners{Batch: []port.BatchJobListener{l}}, batch.Options{})
	job := submit(t, store, "compress", []string{"a.pdf"}, false)

	require.NoError(t, runner.Run(context.Background(), job.ID))
	l.AssertExpectations(t)
}

func TestRun_RejectsNonPendingJob(t *testing.T) {
	store, runner := setup(t, failOn(""), nil, batch.Options{})
	job := submit(t, store, "compress", []string{"a.pdf"}, false)
	require.NoError(t, runner.Run(context.Background(), job.ID))

	err := runner.Run(context.Background(), job.ID)
	assert.True(t, errors.Is(err, exception.ErrInvalidState))

	err = runner.Run(context.Background(), "missing")
	assert.True(t, errors.Is(err, exception.ErrNotFound))
}
