// Package conversation ведет диалог расчета кредита: сумма, срок, ставка, результат и график.
//
// Диалог - конечный автомат: шаг хранится в session.Session, переходы заданы
// таблицей по паре (шаг, класс ввода).
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cloud-ru/loan-calculator-bot/internal/config"
	"github.com/cloud-ru/loan-calculator-bot/internal/metrics"
	"github.com/cloud-ru/loan-calculator-bot/internal/render"
	"github.com/cloud-ru/loan-calculator-bot/internal/session"
)

const lockStripes = 64

// Flow обрабатывает события всех чатов. События одного чата выполняются последовательно.
type Flow struct {
	cfg    *config.Config
	store  session.Store
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
	loc    *time.Location
	locks  [lockStripes]sync.Mutex
}

// Option настраивает Flow
type Option func(*Flow)

// WithClock подменяет источник текущего времени (дата первого платежа)
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// WithTracer задает трейсер для спанов обработки
func WithTracer(tracer trace.Tracer) Option {
	return func(f *Flow) { f.tracer = tracer }
}

// NewFlow создает обработчик диалога
func NewFlow(cfg *config.Config, store session.Store, logger *zap.Logger, opts ...Option) *Flow {
	f := &Flow{
		cfg:    cfg,
		store:  store,
		logger: logger,
		tracer: otel.Tracer("conversation"),
		now:    time.Now,
		loc:    cfg.Location(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Handle применяет событие к сессии чата и возвращает ответы пользователю
func (f *Flow) Handle(ctx context.Context, ev Event) ([]Reply, error) {
	ctx, span := f.tracer.Start(ctx, "conversation.handle")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("chat_id", ev.ChatID),
		attribute.String("event_kind", string(ev.Kind)),
	)

	mu := &f.locks[uint64(ev.ChatID)%lockStripes]
	mu.Lock()
	defer mu.Unlock()

	s, err := f.store.Get(ctx, ev.ChatID)
	if errors.Is(err, session.ErrNotFound) {
		s = nil
	} else if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("load session: %w", err)
	}

	from := session.StateNone
	if s != nil {
		from = s.State
	}

	in, a := f.classify(from, ev)
	t, ok := lookup(from, in)
	if !ok {
		f.logger.Debug("no transition",
			zap.Int64("chat_id", ev.ChatID),
			zap.Stringer("state", from),
			zap.Stringer("input", in),
		)
		metrics.Transitions.WithLabelValues(from.String(), in.String(), from.String()).Inc()
		return []Reply{{Text: render.StartHint}}, nil
	}

	next, replies, err := t.act(ctx, f, s, ev, a)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	to := session.StateNone
	if next != nil {
		next.State = t.next
		to = t.next
		if err := f.store.Save(ctx, next); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("save session: %w", err)
		}
	} else if s != nil {
		if err := f.store.Delete(ctx, ev.ChatID); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("delete session: %w", err)
		}
	}

	span.SetAttributes(
		attribute.String("state_from", from.String()),
		attribute.String("input", in.String()),
		attribute.String("state_to", to.String()),
	)
	metrics.Transitions.WithLabelValues(from.String(), in.String(), to.String()).Inc()
	f.logger.Debug("transition",
		zap.Int64("chat_id", ev.ChatID),
		zap.Stringer("from", from),
		zap.Stringer("input", in),
		zap.Stringer("to", to),
	)

	return replies, nil
}

// today возвращает дату первого платежа: текущий день в часовом поясе конфигурации
func (f *Flow) today() time.Time {
	y, m, d := f.now().In(f.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, f.loc)
}
