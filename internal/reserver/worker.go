package reserver

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"orderflow/internal/logger"
	"orderflow/internal/sink"
	"orderflow/internal/webhook"
	"orderflow/pkg/errors"
	"orderflow/pkg/logging"
	"orderflow/pkg/metrics"
	"orderflow/pkg/models"
	"orderflow/pkg/retry"
	"orderflow/pkg/tracing"
)

var (
	ErrUploadExhausted  = stderrors.New("upload attempts exhausted")
	ErrUnexpectedStatus = stderrors.New("sink returned unexpected status")
)

type Uploader interface {
	Upload(ctx context.Context, name string, body []byte, overwrite bool) (int, error)
	Kind() string
}

type Fallback interface {
	Post(ctx context.Context, body []byte) (int, error)
}

type Config struct {
	MaxAttempts   int
	RetryInterval time.Duration
}

// Outcome describes how one message left the worker.
type Outcome struct {
	State       State
	Name        string
	Attempts    int
	LastStatus  int
	UploadErr   error
	FallbackErr error
}

func (o Outcome) Err() error {
	return stderrors.Join(o.UploadErr, o.FallbackErr)
}

func (o *Outcome) advance(e event) error {
	next, err := transition(o.State, e)
	if err != nil {
		return err
	}
	o.State = next
	return nil
}

type Worker struct {
	sink     Uploader
	fallback Fallback
	namer    Namer
	policy   retry.Policy
	logger   logger.Logger
}

func NewWorker(cfg Config, s Uploader, fb Fallback, namer Namer, log logger.Logger) *Worker {
	if namer == nil {
		namer = NewTimestampNamer(false)
	}
	return &Worker{
		sink:     s,
		fallback: fb,
		namer:    namer,
		policy: retry.Policy{
			MaxAttempts:     cfg.MaxAttempts,
			InitialInterval: cfg.RetryInterval,
			MaxInterval:     30 * time.Second,
			Multiplier:      2.0,
		},
		logger: log,
	}
}

// Handle adapts the worker to the broker. The message is always
// acknowledged once Process returns.
func (w *Worker) Handle(ctx context.Context, msg models.Message) error {
	w.Process(ctx, msg.Body)
	return nil
}

// Process stores body in the sink, retrying failed attempts with the same
// bytes. When every attempt fails, or anything unexpected happens on the
// way, the original bytes go to the fallback webhook instead.
func (w *Worker) Process(ctx context.Context, body []byte) Outcome {
	if id, ok := models.PeekOrderID(body); ok {
		ctx = logging.WithOrderID(ctx, id)
	}

	out := Outcome{State: StateReceived}

	err := errors.Guard(func() error {
		return w.persist(ctx, body, &out)
	})
	if err == nil {
		metrics.IncPersistOutcome(out.State.String())
		w.logger.InfowCtx(ctx, "Order record persisted",
			"name", out.Name,
			"attempts", out.Attempts,
			"sink", w.sink.Kind(),
		)
		return out
	}

	out.UploadErr = err
	if out.State == StateExhausted {
		_ = out.advance(eventFallbackStarted)
		w.logger.WarnwCtx(ctx, "Upload attempts exhausted, sending to fallback",
			"name", out.Name,
			"attempts", out.Attempts,
			"error", err,
		)
	} else {
		_ = out.advance(eventFault)
		w.logger.ErrorwCtx(ctx, "Unexpected failure while persisting, sending to fallback",
			"name", out.Name,
			"attempts", out.Attempts,
			"state", out.State.String(),
			"error", err,
		)
	}

	w.sendFallback(ctx, body, &out)
	metrics.IncPersistOutcome(out.State.String())
	return out
}

func (w *Worker) persist(ctx context.Context, body []byte, out *Outcome) error {
	out.Name = w.namer.Name(body)

	var lastErr error
	err := retry.RetryWithCallback(ctx, w.policy, func() error {
		if err := out.advance(eventAttemptStarted); err != nil {
			return retry.NewFatalError(err)
		}
		out.Attempts++
		lastErr = w.upload(ctx, out, body)
		return lastErr
	}, func(attempt int, err error, nextDelay time.Duration) {
		w.logger.WarnwCtx(ctx, "Upload attempt failed, retrying",
			"name", out.Name,
			"attempt", attempt,
			"next_delay", nextDelay,
			"error", err,
		)
	})
	if err == nil {
		return out.advance(eventUploaded)
	}

	var fatal retry.FatalError
	if stderrors.As(err, &fatal) {
		return err
	}
	if advErr := out.advance(eventAttemptsExhausted); advErr != nil {
		return advErr
	}
	// Cancellation between attempts surfaces as ctx.Err(); keep the sink's
	// own failure next to it.
	if lastErr != nil && !stderrors.Is(err, lastErr) {
		err = stderrors.Join(err, lastErr)
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrUploadExhausted, out.Attempts, err)
}

func (w *Worker) upload(ctx context.Context, out *Outcome, body []byte) (err error) {
	ctx, span := tracing.StartStep(ctx, "sink.upload",
		tracing.AttrObjectName.String(out.Name),
		tracing.AttrAttempts.Int(out.Attempts),
	)
	defer func() { tracing.EndStep(span, err) }()

	start := time.Now()
	status, err := w.sink.Upload(ctx, out.Name, body, false)
	metrics.ObserveSinkUploadDuration(w.sink.Kind(), time.Since(start))
	out.LastStatus = status

	if err != nil {
		metrics.IncSinkUploadAttempt(w.sink.Kind(), "error")
		return err
	}
	if status != sink.StatusCreated {
		metrics.IncSinkUploadAttempt(w.sink.Kind(), "unexpected_status")
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
	}
	metrics.IncSinkUploadAttempt(w.sink.Kind(), "created")
	return nil
}

func (w *Worker) sendFallback(ctx context.Context, body []byte, out *Outcome) {
	// Sent even if ctx was canceled during the upload attempts.
	fbCtx := context.WithoutCancel(ctx)

	err := errors.Guard(func() error {
		if w.fallback == nil {
			return webhook.ErrNotConfigured
		}
		_, err := w.fallback.Post(fbCtx, body)
		return err
	})
	if err == nil {
		_ = out.advance(eventFallbackDelivered)
		metrics.IncFallbackDelivery("sent")
		w.logger.InfowCtx(ctx, "Order record sent to fallback",
			"name", out.Name,
			"size", len(body),
		)
		return
	}

	out.FallbackErr = err
	_ = out.advance(eventFallbackFailed)

	if stderrors.Is(err, webhook.ErrNotConfigured) {
		metrics.IncFallbackDelivery("not_configured")
		w.logger.ErrorwCtx(ctx, "Fallback webhook not configured, order record dropped",
			"name", out.Name,
			"upload_error", out.UploadErr,
		)
		return
	}

	metrics.IncFallbackDelivery("failed")
	w.logger.ErrorwCtx(ctx, "Fallback delivery failed, order record dropped",
		"name", out.Name,
		"error", err,
		"upload_error", out.UploadErr,
	)
}
