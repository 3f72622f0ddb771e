package conversation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloud-ru/loan-calculator-bot/internal/calculations"
	"github.com/cloud-ru/loan-calculator-bot/internal/metrics"
	"github.com/cloud-ru/loan-calculator-bot/internal/render"
	"github.com/cloud-ru/loan-calculator-bot/internal/session"
)

// action выполняет переход. Возвращенная сессия сохраняется с новым шагом,
// nil означает завершение диалога.
type action func(ctx context.Context, f *Flow, s *session.Session, ev Event, a answer) (*session.Session, []Reply, error)

type transition struct {
	next session.State
	act  action
}

type transitionKey struct {
	state session.State
	input Input
}

// anyState подходит для любого шага, включая отсутствие сессии
const anyState session.State = -1

var transitions = map[transitionKey]transition{
	{anyState, InputStart}:  {session.StateAskAmount, start},
	{anyState, InputCancel}: {session.StateNone, cancel},

	{session.StateAskAmount, InputValid}:   {session.StateAskTerm, acceptAmount},
	{session.StateAskAmount, InputInvalid}: {session.StateAskAmount, reprompt(render.InvalidAmount)},
	{session.StateAskTerm, InputValid}:     {session.StateAskRate, acceptTerm},
	{session.StateAskTerm, InputInvalid}:   {session.StateAskTerm, reprompt(render.InvalidTerm)},
	{session.StateAskRate, InputValid}:     {session.StateShowResult, acceptRate},
	{session.StateAskRate, InputInvalid}:   {session.StateAskRate, reprompt(render.InvalidRate)},

	{session.StateShowResult, InputRestart}:      {session.StateAskAmount, restart},
	{session.StateShowResult, InputShowSchedule}: {session.StateShowSchedule, showSchedule},
	{session.StateShowResult, InputShowResult}:   {session.StateShowResult, showResult},

	{session.StateShowSchedule, InputRestart}:      {session.StateAskAmount, restart},
	{session.StateShowSchedule, InputShowResult}:   {session.StateShowResult, showResult},
	{session.StateShowSchedule, InputShowSchedule}: {session.StateShowSchedule, showSchedule},
	{session.StateShowSchedule, InputPrevPage}:     {session.StateShowSchedule, turnPage(-1)},
	{session.StateShowSchedule, InputNextPage}:     {session.StateShowSchedule, turnPage(1)},
}

func lookup(state session.State, in Input) (transition, bool) {
	if t, ok := transitions[transitionKey{state, in}]; ok {
		return t, true
	}
	t, ok := transitions[transitionKey{anyState, in}]
	return t, ok
}

func start(_ context.Context, _ *Flow, _ *session.Session, ev Event, _ answer) (*session.Session, []Reply, error) {
	return session.New(ev.ChatID, ev.UserName), []Reply{
		{Text: render.Greeting(ev.UserName)},
		{Text: render.AskAmount},
	}, nil
}

func cancel(_ context.Context, _ *Flow, _ *session.Session, _ Event, _ answer) (*session.Session, []Reply, error) {
	return nil, []Reply{{Text: render.StartHint}}, nil
}

func restart(_ context.Context, _ *Flow, s *session.Session, ev Event, _ answer) (*session.Session, []Reply, error) {
	return session.New(ev.ChatID, s.UserName), []Reply{
		{Text: render.BackToStart, Edit: true},
		{Text: render.AskAmount},
	}, nil
}

func reprompt(prompt string) action {
	return func(_ context.Context, _ *Flow, s *session.Session, _ Event, a answer) (*session.Session, []Reply, error) {
		return s, []Reply{{Text: render.Invalid(prompt, a.reason)}}, nil
	}
}

func acceptAmount(_ context.Context, _ *Flow, s *session.Session, _ Event, a answer) (*session.Session, []Reply, error) {
	s.Amount = a.amount
	return s, []Reply{{Text: render.AskTerm}}, nil
}

func acceptTerm(_ context.Context, _ *Flow, s *session.Session, _ Event, a answer) (*session.Session, []Reply, error) {
	s.TermMonths = a.months
	return s, []Reply{{Text: render.AskRate}}, nil
}

func acceptRate(ctx context.Context, f *Flow, s *session.Session, _ Event, a answer) (*session.Session, []Reply, error) {
	s.RatePercent = a.rate

	span := trace.SpanFromContext(ctx)
	req := calculations.LoanRequest{
		Amount:            s.Amount,
		AnnualRatePercent: s.RatePercent,
		TermMonths:        s.TermMonths,
	}
	result, err := calculations.AnnuitySchedule(req, f.today())
	if err != nil {
		metrics.CalculationErrors.WithLabelValues("conversation", "calculation").Inc()
		return nil, nil, fmt.Errorf("ошибка при выполнении расчета: %w", err)
	}
	span.SetAttributes(
		attribute.Float64("amount", req.Amount),
		attribute.Float64("annual_rate_percent", req.AnnualRatePercent),
		attribute.Int("months", req.TermMonths),
		attribute.Float64("monthly_payment", result.MonthlyPayment),
	)

	s.Result = result
	s.Page = 0
	return s, []Reply{resultReply(result, false)}, nil
}

func showResult(_ context.Context, _ *Flow, s *session.Session, _ Event, _ answer) (*session.Session, []Reply, error) {
	if s.Result == nil {
		return s, []Reply{{Text: render.StartHint}}, nil
	}
	s.Page = 0
	return s, []Reply{resultReply(s.Result, true)}, nil
}

func showSchedule(_ context.Context, f *Flow, s *session.Session, _ Event, _ answer) (*session.Session, []Reply, error) {
	return f.schedulePage(s, 1)
}

func turnPage(delta int) action {
	return func(_ context.Context, f *Flow, s *session.Session, _ Event, _ answer) (*session.Session, []Reply, error) {
		return f.schedulePage(s, s.Page+delta)
	}
}

func (f *Flow) schedulePage(s *session.Session, number int) (*session.Session, []Reply, error) {
	if s.Result == nil {
		return s, []Reply{{Text: render.StartHint}}, nil
	}
	page := render.Paginate(s.Result.Schedule, number, f.cfg.SchedulePageSize)
	s.Page = page.Number
	return s, []Reply{{
		Text:      render.SchedulePage(page),
		ParseMode: ParseMarkdown,
		Keyboard:  scheduleKeyboard(page),
		Edit:      true,
	}}, nil
}

func resultReply(result *calculations.AmortizationResult, edit bool) Reply {
	return Reply{
		Text:      render.Result(result),
		ParseMode: ParseMarkdown,
		Keyboard:  resultKeyboard(),
		Edit:      edit,
	}
}
