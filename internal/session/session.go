package session

import (
	"context"
	"errors"
	"time"

	"github.com/cloud-ru/loan-calculator-bot/internal/calculations"
)

// ErrNotFound возвращается, если для чата нет активной сессии
var ErrNotFound = errors.New("session not found")

// State - шаг диалога
type State int

const (
	StateNone State = iota
	StateAskAmount
	StateAskTerm
	StateAskRate
	StateShowResult
	StateShowSchedule
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateAskAmount:
		return "ask_amount"
	case StateAskTerm:
		return "ask_term"
	case StateAskRate:
		return "ask_rate"
	case StateShowResult:
		return "show_result"
	case StateShowSchedule:
		return "show_schedule"
	default:
		return "unknown"
	}
}

// Session хранит ответы пользователя в одном диалоге.
// Сессия создается командой /start и заменяется при перезапуске.
type Session struct {
	ChatID      int64                            `json:"chat_id"`
	State       State                            `json:"state"`
	UserName    string                           `json:"user_name,omitempty"`
	Amount      float64                          `json:"amount,omitempty"`
	TermMonths  int                              `json:"term_months,omitempty"`
	RatePercent float64                          `json:"rate_percent,omitempty"`
	Result      *calculations.AmortizationResult `json:"result,omitempty"`
	Page        int                              `json:"page,omitempty"`
	UpdatedAt   time.Time                        `json:"updated_at"`
}

// New создает пустую сессию, ожидающую сумму кредита
func New(chatID int64, userName string) *Session {
	return &Session{
		ChatID:   chatID,
		State:    StateAskAmount,
		UserName: userName,
	}
}

// Store хранит сессии по идентификатору чата
type Store interface {
	Get(ctx context.Context, chatID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, chatID int64) error
}
