package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"deck-server/internal/generator"
	"deck-server/internal/metrics"
)

// ErrQueueClosed возвращается для заданий, поставленных после остановки очереди.
var ErrQueueClosed = errors.New("image queue is closed")

// Виды заданий для метрик.
const (
	JobKindPipeline   = "pipeline"
	JobKindRegenerate = "regenerate"
)

// ImageResult - итог одного задания.
type ImageResult struct {
	Ref string
	Err error
}

type imageJob struct {
	ctx    context.Context
	kind   string
	req    generator.ImageRequest
	result chan ImageResult
}

// ImageQueue выполняет запросы к генератору изображений строго по одному
// в порядке постановки. Задания конвейера и ручной перегенерации идут через
// одну и ту же очередь.
type ImageQueue struct {
	gen    generator.ImageGenerator
	jobs   chan imageJob
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewImageQueue создаёт очередь и запускает её единственный обработчик.
func NewImageQueue(gen generator.ImageGenerator, logger *zap.Logger) *ImageQueue {
	q := &ImageQueue{
		gen:    gen,
		jobs:   make(chan imageJob),
		done:   make(chan struct{}),
		logger: logger.Named("ImageQueue"),
	}
	q.wg.Add(1)
	go q.worker()
	return q
}

// Submit ставит задание в очередь и возвращает канал с его итогом.
// Канал буферизован, итог можно не читать.
func (q *ImageQueue) Submit(ctx context.Context, kind string, req generator.ImageRequest) <-chan ImageResult {
	result := make(chan ImageResult, 1)
	job := imageJob{ctx: ctx, kind: kind, req: req, result: result}

	select {
	case <-q.done:
		result <- ImageResult{Err: ErrQueueClosed}
	case <-ctx.Done():
		result <- ImageResult{Err: ctx.Err()}
	case q.jobs <- job:
	}
	return result
}

// Do ставит задание и ждёт итога.
func (q *ImageQueue) Do(ctx context.Context, kind string, req generator.ImageRequest) (string, error) {
	res := <-q.Submit(ctx, kind, req)
	return res.Ref, res.Err
}

// Close останавливает обработчик. Текущее задание доводится до конца.
func (q *ImageQueue) Close() {
	q.once.Do(func() { close(q.done) })
	q.wg.Wait()
}

func (q *ImageQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			return
		case job := <-q.jobs:
			job.result <- q.process(job)
		}
	}
}

func (q *ImageQueue) process(job imageJob) ImageResult {
	if err := job.ctx.Err(); err != nil {
		metrics.ImageJobsTotal.WithLabelValues(job.kind, "skipped").Inc()
		return ImageResult{Err: err}
	}

	start := time.Now()
	ref, err := q.gen.GenerateImage(job.ctx, job.req)
	metrics.ImageJobDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ImageJobsTotal.WithLabelValues(job.kind, "error").Inc()
		q.logger.Warn("Image job failed",
			zap.String("kind", job.kind),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return ImageResult{Err: err}
	}
	metrics.ImageJobsTotal.WithLabelValues(job.kind, "success").Inc()
	q.logger.Debug("Image job finished",
		zap.String("kind", job.kind),
		zap.Duration("duration", time.Since(start)),
		zap.Int("refLength", len(ref)),
	)
	return ImageResult{Ref: ref}
}
