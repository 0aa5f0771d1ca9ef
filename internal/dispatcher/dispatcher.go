package dispatcher

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"orderflow/internal/broker"
	"orderflow/internal/events"
	"orderflow/internal/logger"
	"orderflow/internal/notify"
	"orderflow/internal/order"
	"orderflow/pkg/errors"
	"orderflow/pkg/metrics"
	"orderflow/pkg/tracing"
)

type Channel string

const (
	ChannelEmail     Channel = "email"
	ChannelProcessor Channel = "processor"
	ChannelQueue     Channel = "queue"
)

const (
	emailSubject      = "Order Created"
	emailBodyTemplate = "Order with id %d was created."
)

// Processor accepts the serialized order record.
type Processor interface {
	Notify(ctx context.Context, body []byte) error
}

type ChannelResult struct {
	Channel Channel
	Err     error
	Skipped bool
}

func (r ChannelResult) OK() bool {
	return r.Err == nil && !r.Skipped
}

type Report struct {
	OrderID int
	Results []ChannelResult
}

func (r Report) Result(ch Channel) (ChannelResult, bool) {
	for _, res := range r.Results {
		if res.Channel == ch {
			return res, true
		}
	}
	return ChannelResult{}, false
}

func (r Report) Failed() []ChannelResult {
	var failed []ChannelResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

type Config struct {
	Recipient string
	Topic     string
}

type Dispatcher struct {
	cfg       Config
	notifier  notify.Notifier
	processor Processor
	producer  broker.Producer
	logger    logger.Logger
}

func New(cfg Config, notifier notify.Notifier, processor Processor, producer broker.Producer, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:       cfg,
		notifier:  notifier,
		processor: processor,
		producer:  producer,
		logger:    log,
	}
}

// Subscriber adapts the dispatcher to the event bus, which discards reports.
func (d *Dispatcher) Subscriber() events.OrderCreatedHandler {
	return events.OrderCreatedHandlerFunc(func(ctx context.Context, event events.OrderCreated) {
		d.HandleOrderCreated(ctx, event)
	})
}

// HandleOrderCreated runs the email, processor and queue steps in that order.
// A failing step never stops the ones after it; only ctx cancellation does,
// and then the remaining steps are reported as skipped.
func (d *Dispatcher) HandleOrderCreated(ctx context.Context, event events.OrderCreated) Report {
	start := time.Now()
	defer func() {
		metrics.ObserveDispatchDuration(time.Since(start))
	}()

	o := event.Order
	report := Report{OrderID: o.ID}

	d.logger.InfowCtx(ctx, "Dispatching order created event",
		"order_id", o.ID,
		"items", len(o.Items),
	)

	// Email does not depend on the record, so a serialization failure only
	// fails the two steps that send it.
	body, bodyErr := serialize(o)

	steps := []struct {
		channel Channel
		run     func(ctx context.Context) error
	}{
		{ChannelEmail, func(ctx context.Context) error {
			return d.notifier.Send(ctx, notify.Email{
				To:        d.cfg.Recipient,
				Subject:   emailSubject,
				Body:      fmt.Sprintf(emailBodyTemplate, o.ID),
				CreatedAt: time.Now().UTC(),
			})
		}},
		{ChannelProcessor, func(ctx context.Context) error {
			if bodyErr != nil {
				return bodyErr
			}
			return d.processor.Notify(ctx, body)
		}},
		{ChannelQueue, func(ctx context.Context) error {
			if bodyErr != nil {
				return bodyErr
			}
			return d.producer.Publish(ctx, d.cfg.Topic, []byte(strconv.Itoa(o.ID)), body)
		}},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			report.Results = append(report.Results, ChannelResult{Channel: step.channel, Err: err, Skipped: true})
			metrics.IncDispatchStep(string(step.channel), "skipped")
			d.logger.WarnwCtx(ctx, "Dispatch step skipped",
				"channel", string(step.channel),
				"order_id", o.ID,
				"error", err,
			)
			continue
		}

		stepCtx, span := tracing.StartStep(ctx, "dispatch."+string(step.channel),
			tracing.AttrOrderID.Int(o.ID),
			tracing.AttrChannel.String(string(step.channel)),
		)
		err := errors.Guard(func() error { return step.run(stepCtx) })
		tracing.EndStep(span, err)
		report.Results = append(report.Results, ChannelResult{Channel: step.channel, Err: err})
		if err != nil {
			metrics.IncDispatchStep(string(step.channel), "error")
			d.logger.ErrorwCtx(ctx, "Dispatch step failed",
				"channel", string(step.channel),
				"order_id", o.ID,
				"error", err,
			)
			continue
		}
		metrics.IncDispatchStep(string(step.channel), "success")
		d.logger.DebugwCtx(ctx, "Dispatch step succeeded",
			"channel", string(step.channel),
			"order_id", o.ID,
		)
	}

	d.logger.InfowCtx(ctx, "Order created event dispatched",
		"order_id", o.ID,
		"failed_steps", len(report.Failed()),
	)

	return report
}

func serialize(o order.Order) ([]byte, error) {
	record, err := order.NewRecord(o)
	if err != nil {
		return nil, fmt.Errorf("failed to build order record: %w", err)
	}
	body, err := record.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize order record: %w", err)
	}
	return body, nil
}
