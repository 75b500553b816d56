package service

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"shift-exchange-backend/internal/common/logger"
	"shift-exchange-backend/internal/features/calendar"
	"shift-exchange-backend/internal/features/exchange/models"
	usermodels "shift-exchange-backend/internal/features/user/models"
	userrepo "shift-exchange-backend/internal/features/user/repository"
	"shift-exchange-backend/internal/platform/telegram"
)

// NotificationService tells both parties of a match who they swap with.
// Delivery is best effort: failures are logged and never retried.
type NotificationService struct {
	messenger telegram.Messenger
	users     userrepo.UserRepository
	log       zerolog.Logger
}

func NewNotificationService(messenger telegram.Messenger, users userrepo.UserRepository) *NotificationService {
	return &NotificationService{
		messenger: messenger,
		users:     users,
		log:       logger.Component("notifications"),
	}
}

// NotifyMatch sends one message to each owner. It must be called after the
// pair has been committed.
func (s *NotificationService) NotifyMatch(ctx context.Context, offer, partner *models.Offer) {
	if s == nil || s.messenger == nil || offer == nil || partner == nil {
		return
	}

	ownerA := s.lookup(ctx, offer.UserID)
	ownerB := s.lookup(ctx, partner.UserID)

	s.send(ctx, offer.UserID, BuildMatchMessage(offer.Have, partner.Have, ownerB))
	s.send(ctx, partner.UserID, BuildMatchMessage(partner.Have, offer.Have, ownerA))
}

func (s *NotificationService) lookup(ctx context.Context, tgID int64) *usermodels.User {
	if s.users != nil {
		if u, err := s.users.GetByTgID(ctx, tgID); err == nil {
			return u
		}
		s.log.Warn().Int64("user_id", tgID).Msg("counterpart not found, notifying without name")
	}
	return &usermodels.User{TgID: tgID}
}

func (s *NotificationService) send(ctx context.Context, chatID int64, text string) {
	if err := s.messenger.Send(ctx, chatID, text); err != nil {
		s.log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to deliver match notification")
		return
	}
	s.log.Info().Int64("chat_id", chatID).Msg("Match notification sent")
}

// UserLink is the Telegram deep link that opens a chat with the user.
func UserLink(tgID int64) string {
	return fmt.Sprintf("tg://user?id=%d", tgID)
}

// BuildMatchMessage renders the HTML message for the owner who gives
// give and receives receive from counterpart.
func BuildMatchMessage(give, receive calendar.Slot, counterpart *usermodels.User) string {
	name := strings.TrimSpace(counterpart.FullName)
	if name == "" {
		name = "коллега"
	}

	var b strings.Builder
	b.WriteString("🔁 <b>Найдена пара для обмена сменами!</b>\n\n")
	fmt.Fprintf(&b, "Вы отдаёте (give): <b>%s</b>\n", escape(give.String()))
	fmt.Fprintf(&b, "Вы получаете (receive): <b>%s</b>\n\n", escape(receive.String()))
	fmt.Fprintf(&b, "Напарник: <a href=\"%s\">%s</a>", UserLink(counterpart.TgID), escape(name))
	if counterpart.Username != "" {
		fmt.Fprintf(&b, " (@%s)", escape(counterpart.Username))
	}
	b.WriteString("\nСвяжитесь, чтобы подтвердить обмен у руководителя.")
	return b.String()
}

func escape(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeHTML, s) }
