package notify

import (
	"encoding/json"
	"fmt"

	"sharehub/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the slice of the telegram bot API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// OperatorNotifier pushes booking activity into the operator chat.
type OperatorNotifier struct {
	bot    Sender
	chatID int64
	logger *zerolog.Logger
}

func NewOperatorNotifier(bot Sender, chatID int64, logger *zerolog.Logger) *OperatorNotifier {
	return &OperatorNotifier{bot: bot, chatID: chatID, logger: logger}
}

// Register subscribes the notifier to booking and comment events.
func (n *OperatorNotifier) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, n.handleBooking)
	bus.Subscribe(events.EventBookingApproved, n.handleBooking)
	bus.Subscribe(events.EventBookingRejected, n.handleBooking)
	bus.Subscribe(events.EventCommentAdded, n.handleComment)
}

func (n *OperatorNotifier) handleBooking(event *events.Event) error {
	var p events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return err
	}

	var text string
	switch event.Type {
	case events.EventBookingCreated:
		text = fmt.Sprintf("Новая бронь #%d: %s, %s — %s (от %s)",
			p.BookingID, p.ItemName,
			p.Start.Format("02.01.2006 15:04"), p.End.Format("02.01.2006 15:04"),
			p.BookerName)
	case events.EventBookingApproved:
		text = fmt.Sprintf("Бронь #%d подтверждена: %s", p.BookingID, p.ItemName)
	case events.EventBookingRejected:
		text = fmt.Sprintf("Бронь #%d отклонена: %s", p.BookingID, p.ItemName)
	default:
		return nil
	}

	return n.send(text)
}

func (n *OperatorNotifier) handleComment(event *events.Event) error {
	var p events.CommentEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return err
	}
	return n.send(fmt.Sprintf("Отзыв на %s от %s: %s", p.ItemName, p.AuthorName, p.Text))
}

func (n *OperatorNotifier) send(text string) error {
	if n.bot == nil || n.chatID == 0 {
		return nil
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		n.logger.Error().Err(err).Msg("telegram notify error")
		return err
	}
	return nil
}
