package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/your-org/imagemeta/pkg/metrics"
	"github.com/your-org/imagemeta/pkg/notify"
	"github.com/your-org/imagemeta/pkg/recordstore"
	"github.com/your-org/imagemeta/pkg/storage/objectstore"
)

const (
	tracerName            = "github.com/your-org/imagemeta/internal/extractor"
	defaultMaxObjectBytes = 50 << 20
)

// Processor turns upload batches into metadata records and notifications.
// Each upload is isolated: a failure is logged and counted, and the rest of
// the batch still runs.
type Processor struct {
	extractor   *MetadataExtractor
	records     recordstore.Store
	notifier    notify.Publisher
	logger      *zap.Logger
	metrics     metrics.Sink
	tracer      trace.Tracer
	concurrency int
	newID       func() string
	now         func() time.Time
}

type Params struct {
	Objects  objectstore.Client
	Records  recordstore.Store
	Notifier notify.Publisher
	Logger   *zap.Logger
	Metrics  metrics.Sink

	// Concurrency bounds how many uploads of one batch run at once. Values
	// below 1 mean sequential processing.
	Concurrency    int
	MaxObjectBytes int64
	Buffers        BufferPool

	// NewID and Now default to uuid.NewString and time.Now.
	NewID func() string
	Now   func() time.Time
}

// Result is the invocation outcome reported back to the trigger.
type Result struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// OK reports whether every upload in the batch succeeded or was skipped.
func (r Result) OK() bool {
	return r.StatusCode == http.StatusOK
}

// NewProcessor constructs a Processor.
func NewProcessor(p Params) *Processor {
	proc := &Processor{
		records:     p.Records,
		notifier:    p.Notifier,
		logger:      p.Logger,
		metrics:     p.Metrics,
		concurrency: p.Concurrency,
		newID:       p.NewID,
		now:         p.Now,
		tracer:      otel.Tracer(tracerName),
	}
	maxBytes := p.MaxObjectBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxObjectBytes
	}
	proc.extractor = NewMetadataExtractor(p.Objects, maxBytes, p.Buffers)

	if proc.logger == nil {
		proc.logger = zap.NewNop()
	}
	if proc.metrics == nil {
		proc.metrics = metrics.NewNoopSink()
	}
	if proc.concurrency < 1 {
		proc.concurrency = 1
	}
	if proc.newID == nil {
		proc.newID = uuid.NewString
	}
	if proc.now == nil {
		proc.now = time.Now
	}
	return proc
}

type outcome int

const (
	outcomeSucceeded outcome = iota
	outcomeFailed
	outcomeSkipped
)

// Process handles every event in batch and summarises the outcome. The
// result is a failure if any single upload failed.
func (p *Processor) Process(ctx context.Context, batch []UploadEvent) Result {
	p.metrics.BatchReceived(len(batch))
	if len(batch) == 0 {
		return Result{StatusCode: http.StatusOK, Message: "no uploads in batch"}
	}

	ctx, span := p.tracer.Start(ctx, "extractor.ProcessBatch",
		trace.WithAttributes(attribute.Int("batch.size", len(batch))))
	defer span.End()

	outcomes := make([]outcome, len(batch))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, ev := range batch {
		g.Go(func() error {
			outcomes[i] = p.handle(ctx, ev)
			return nil
		})
	}
	_ = g.Wait()

	var succeeded, failed, skipped int
	for _, o := range outcomes {
		switch o {
		case outcomeSucceeded:
			succeeded++
		case outcomeFailed:
			failed++
		case outcomeSkipped:
			skipped++
		}
	}

	msg := fmt.Sprintf("processed %d of %d uploads: %d succeeded, %d failed, %d skipped",
		succeeded+failed, len(batch), succeeded, failed, skipped)
	span.SetAttributes(attribute.Int("batch.failed", failed))

	if failed > 0 {
		span.SetStatus(codes.Error, msg)
		p.logger.Warn("batch completed with failures",
			zap.Int("batch_size", len(batch)), zap.Int("failed", failed))
		return Result{StatusCode: http.StatusInternalServerError, Message: msg}
	}
	p.logger.Info("batch completed", zap.Int("batch_size", len(batch)), zap.Int("skipped", skipped))
	return Result{StatusCode: http.StatusOK, Message: msg}
}

func (p *Processor) handle(ctx context.Context, ev UploadEvent) outcome {
	log := p.logger.With(zap.String("bucket", ev.Bucket), zap.String("key", ev.Key))

	if !ev.IsCreate() {
		log.Debug("skipping non-create event", zap.String("event_name", ev.Name))
		p.metrics.EventSkipped()
		return outcomeSkipped
	}

	ctx, span := p.tracer.Start(ctx, "extractor.ProcessUpload", trace.WithAttributes(
		attribute.String("bucket", ev.Bucket),
		attribute.String("key", ev.Key),
	))
	defer span.End()

	start := time.Now()
	rec, err := p.ProcessUpload(ctx, ev)
	if err != nil {
		stage := StageOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(stage))
		log.Error("upload processing failed", zap.String("stage", string(stage)), zap.Error(err))
		p.metrics.EventFailed(string(stage), time.Since(start))
		return outcomeFailed
	}

	span.SetAttributes(attribute.String("record.id", rec.ID))
	log.Info("upload processed",
		zap.String("record_id", rec.ID),
		zap.Int("width", rec.Width),
		zap.Int("height", rec.Height),
		zap.String("format", rec.Format),
		zap.Int64("size_bytes", rec.FileSizeBytes),
	)
	p.metrics.EventSucceeded(time.Since(start))
	return outcomeSucceeded
}

// ProcessUpload runs fetch, decode, write and publish for one event, in that
// order. A notification is only published once its record is stored.
func (p *Processor) ProcessUpload(ctx context.Context, ev UploadEvent) (recordstore.Record, error) {
	meta, err := p.extractor.Extract(ctx, ev.Bucket, ev.Key)
	if err != nil {
		return recordstore.Record{}, err
	}

	rec := BuildRecord(ev, meta, p.newID(), p.now())
	if err := p.records.Put(ctx, rec); err != nil {
		return recordstore.Record{}, newStageError(StageWrite, ev.Bucket, ev.Key, err)
	}

	if err := p.notifier.Publish(ctx, FormatNotification(rec, ev.Bucket)); err != nil {
		return recordstore.Record{}, newStageError(StagePublish, ev.Bucket, ev.Key, err)
	}
	return rec, nil
}

// Close releases the collaborators in reverse order of use.
func (p *Processor) Close(ctx context.Context) error {
	var errs []error
	if err := p.notifier.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close notifier: %w", err))
	}
	if err := p.records.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close record store: %w", err))
	}
	if err := p.extractor.objects.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close object store: %w", err))
	}
	return errors.Join(errs...)
}
