package conversation

import (
	"errors"
	"strings"

	"github.com/cloud-ru/loan-calculator-bot/internal/session"
	"github.com/cloud-ru/loan-calculator-bot/internal/validators"
)

// Input - класс входящего события с учетом текущего шага
type Input int

const (
	InputOther Input = iota
	InputStart
	InputCancel
	InputValid
	InputInvalid
	InputRestart
	InputShowSchedule
	InputShowResult
	InputPrevPage
	InputNextPage
)

func (i Input) String() string {
	switch i {
	case InputStart:
		return "start"
	case InputCancel:
		return "cancel"
	case InputValid:
		return "valid"
	case InputInvalid:
		return "invalid"
	case InputRestart:
		return "restart"
	case InputShowSchedule:
		return "show_schedule"
	case InputShowResult:
		return "show_result"
	case InputPrevPage:
		return "prev_page"
	case InputNextPage:
		return "next_page"
	default:
		return "other"
	}
}

// answer - разобранный ответ на вопрос текущего шага
type answer struct {
	amount float64
	months int
	rate   float64
	reason string
}

func (f *Flow) classify(state session.State, ev Event) (Input, answer) {
	switch ev.Kind {
	case EventCommand:
		switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ev.Text), "/")) {
		case "start":
			return InputStart, answer{}
		case "cancel":
			return InputCancel, answer{}
		}
		return InputOther, answer{}

	case EventCallback:
		switch ev.Text {
		case CallbackRestart:
			return InputRestart, answer{}
		case CallbackShowPayments:
			return InputShowSchedule, answer{}
		case CallbackShowResults:
			return InputShowResult, answer{}
		case CallbackPrevPage:
			return InputPrevPage, answer{}
		case CallbackNextPage:
			return InputNextPage, answer{}
		}
		return InputOther, answer{}

	case EventText:
		var (
			a   answer
			err error
		)
		switch state {
		case session.StateAskAmount:
			a.amount, err = validators.ParseAmount(f.cfg, ev.Text)
		case session.StateAskTerm:
			a.months, err = validators.ParseMonths(f.cfg, ev.Text)
		case session.StateAskRate:
			a.rate, err = validators.ParseRate(f.cfg, ev.Text)
		default:
			return InputOther, answer{}
		}
		if err != nil {
			var ve *validators.ValidationError
			if errors.As(err, &ve) {
				a.reason = ve.Reason
			}
			return InputInvalid, a
		}
		return InputValid, a
	}

	return InputOther, answer{}
}
