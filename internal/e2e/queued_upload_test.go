package e2e

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/finconsol/internal/app"
	"github.com/odyssey-erp/finconsol/internal/ingest"
	jobmetrics "github.com/odyssey-erp/finconsol/internal/jobs"
	"github.com/odyssey-erp/finconsol/jobs"
)

type recordingQueue struct {
	mu  sync.Mutex
	ids []string
}

func (q *recordingQueue) EnqueueValidate(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
	return nil
}

func (q *recordingQueue) Close() error { return nil }

func sharedConfig(addr string) *app.Config {
	return &app.Config{
		Store:          app.StoreRedis,
		RedisAddr:      addr,
		QueueUpload:    true,
		InsightMode:    app.InsightStatic,
		InsightTimeout: time.Second,
		StateTTL:       time.Hour,
		CacheTTL:       time.Minute,
		BlobTTL:        time.Hour,
	}
}

// The web process stores and enqueues; a separate worker process resolves
// the record through the shared Redis store.
func TestQueuedUploadResolvedByWorker(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cfg := sharedConfig(mr.Addr())

	queue := &recordingQueue{}
	web, err := app.NewServices(ctx, cfg, &app.Backends{Redis: client, Queue: queue}, nil, nil)
	require.NoError(t, err)
	worker, err := app.NewServices(ctx, cfg, &app.Backends{Redis: client}, nil, nil)
	require.NoError(t, err)

	seeded, err := web.Uploads.List(ctx)
	require.NoError(t, err)
	require.Len(t, seeded, 3, "the second process must not seed the records twice")

	content := []byte("Account Code,Account Name,Amount\n4000,Revenue,\"(1,250.50)\"\n")
	file, err := web.Uploads.Upload(ctx, ingest.SubmitInput{Market: "Hong Kong", Filename: "HK_Budget.csv"}, content)
	require.NoError(t, err)
	require.Equal(t, ingest.StatusProcessing, file.Status)
	require.Equal(t, []string{file.ID}, queue.ids)

	task, err := jobs.NewIngestValidateTask(file.ID)
	require.NoError(t, err)
	job := jobs.NewIngestValidateJob(worker.Processor, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, job.Handle(ctx, task))

	got, err := web.Uploads.Get(ctx, file.ID)
	require.NoError(t, err)
	require.Equal(t, ingest.StatusValid, got.Status)
	require.Empty(t, got.Errors)
	require.False(t, mr.Exists("finconsol:upload:"+file.ID+":blob"), "content is dropped once resolved")

	// A redelivered task leaves the resolved record alone.
	require.NoError(t, job.Handle(ctx, task))
	_, err = web.Uploads.Resolve(ctx, file.ID, ingest.ResolveInput{Status: ingest.StatusError, Errors: []string{"late"}})
	require.ErrorIs(t, err, ingest.ErrInvalidTransition)
}
