package conversation

// EventKind - вид входящего события транспорта
type EventKind string

const (
	EventCommand  EventKind = "command"
	EventText     EventKind = "text"
	EventCallback EventKind = "callback"
)

// Данные кнопок
const (
	CallbackRestart      = "restart"
	CallbackShowPayments = "show_payments"
	CallbackShowResults  = "show_results"
	CallbackPrevPage     = "page_prev"
	CallbackNextPage     = "page_next"
)

// ParseMarkdown - режим разметки Telegram для ответов с форматированием
const ParseMarkdown = "Markdown"

// Event - одно сообщение, команда или нажатие кнопки пользователем.
// Для команды Text содержит имя команды, для кнопки - ее данные.
type Event struct {
	ChatID   int64     `json:"chat_id"`
	Kind     EventKind `json:"kind"`
	Text     string    `json:"text"`
	UserName string    `json:"user_name,omitempty"`
}

// Button - кнопка встроенной клавиатуры
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Reply - ответ пользователю. Edit означает замену сообщения, на котором нажата кнопка.
type Reply struct {
	Text      string     `json:"text"`
	ParseMode string     `json:"parse_mode,omitempty"`
	Keyboard  [][]Button `json:"keyboard,omitempty"`
	Edit      bool       `json:"edit,omitempty"`
}
