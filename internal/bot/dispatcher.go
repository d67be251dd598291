package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/club30ka/gatebot/internal/db"
)

// ErrDispatchFailed marks an approve/decline call the Telegram API rejected.
// There is no retry: the operator is notified and the request stays pending.
var ErrDispatchFailed = errors.New("dispatch failed")

// Dispatcher carries out the decision on a join request: approve, decline,
// or hand the case to the operator.
type Dispatcher struct {
	botAPI     *tgbotapi.BotAPI
	alumniRepo *db.AlumniRepository
	operatorID int64
	logger     *zap.Logger

	mentionOnce sync.Once
	mention     string
}

func NewDispatcher(botAPI *tgbotapi.BotAPI, alumniRepo *db.AlumniRepository, operatorID int64, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		botAPI:     botAPI,
		alumniRepo: alumniRepo,
		operatorID: operatorID,
		logger:     logger,
	}
}

// Approve lets the applicant into the group, welcomes them, stamps the
// matched record and tells the operator. When no join request has been
// observed yet (GroupChatID is zero) only the Telegram approve call is
// skipped; the caller whitelists the applicant for the request to come.
func (d *Dispatcher) Approve(ctx context.Context, a Attempt, record *db.AlumnusRecord) error {
	if a.GroupChatID != 0 {
		if err := d.approveJoin(a); err != nil {
			return fmt.Errorf("Dispatcher.Approve: %w", err)
		}
	}

	msg := tgbotapi.NewMessage(a.ApplicantID, successMessage(d.operatorMention()))
	msg.ParseMode = tgbotapi.ModeHTML
	d.send(msg)

	if err := d.alumniRepo.MarkJoined(ctx, record.ID, a.Username); err != nil {
		d.logger.Error("cannot stamp record after approval",
			zap.Int64("record_id", record.ID), zap.Error(err))
		d.NotifyOperator(fmt.Sprintf(
			"⚠️ Заявка одобрена, но запись в базе не обновлена.\nЗапись: %s (%d-%d)",
			record.FullName, record.GraduationYear, record.ClassNumber))
	}

	d.NotifyOperator(fmt.Sprintf(
		"✅ ПОЛЬЗОВАТЕЛЬ ПРОШЕЛ ПРОВЕРКУ\n\n"+
			"👤 Никнейм: @%s\n🆔 ID: %d\n"+
			"📝 Данные из базы:\nФИО: %s\nГод: %d\nКласс: %d\n\n"+
			"🔗 Для ответа перейдите в чат: tg://user?id=%d",
		a.Username, a.ApplicantID,
		record.FullName, record.GraduationYear, record.ClassNumber,
		a.ApplicantID))

	d.logger.Info("applicant approved",
		zap.Int64("applicant_id", a.ApplicantID),
		zap.Int64("record_id", record.ID))

	return nil
}

// ApprovePending approves a join request from an applicant who already
// passed verification in direct messages. The welcome and the record stamp
// happened at verification time.
func (d *Dispatcher) ApprovePending(a Attempt) error {
	if err := d.approveJoin(a); err != nil {
		return fmt.Errorf("Dispatcher.ApprovePending: %w", err)
	}

	d.logger.Info("verified applicant approved", zap.Int64("applicant_id", a.ApplicantID))

	return nil
}

// DeclineIncomplete declines a join request whose bio lacked the full
// triple and points the applicant to the direct-message flow.
func (d *Dispatcher) DeclineIncomplete(a Attempt) error {
	if err := d.declineJoin(a); err != nil {
		return fmt.Errorf("Dispatcher.DeclineIncomplete: %w", err)
	}

	d.send(tgbotapi.NewMessage(a.ApplicantID, msgDeclinedIncompleteBio))

	return nil
}

func (d *Dispatcher) approveJoin(a Attempt) error {
	approve := tgbotapi.ApproveChatJoinRequestConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: a.GroupChatID},
		UserID:     a.ApplicantID,
	}
	if _, err := d.botAPI.Request(approve); err != nil {
		d.reportDispatchFailure(a, "approve", err)

		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	return nil
}

func (d *Dispatcher) declineJoin(a Attempt) error {
	decline := tgbotapi.DeclineChatJoinRequest{
		ChatConfig: tgbotapi.ChatConfig{ChatID: a.GroupChatID},
		UserID:     a.ApplicantID,
	}
	if _, err := d.botAPI.Request(decline); err != nil {
		d.reportDispatchFailure(a, "decline", err)

		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	return nil
}

// Reject declines the join request and tells the applicant what was
// submitted, with a button to reach the operator if the data was right.
func (d *Dispatcher) Reject(a Attempt) error {
	if a.GroupChatID != 0 {
		if err := d.declineJoin(a); err != nil {
			return fmt.Errorf("Dispatcher.Reject: %w", err)
		}
	}

	msg := tgbotapi.NewMessage(a.ApplicantID, notFoundMessage(a))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnContactAdmin, callbackContactAdmin),
		),
	)
	d.send(msg)

	d.NotifyOperator(fmt.Sprintf(
		"❌ ПОЛЬЗОВАТЕЛЬ НЕ НАЙДЕН В БАЗЕ\n\n"+
			"👤 Пользователь ID: %d\n"+
			"📝 Введённые данные:\nФИО: %s\nГод: %d\nКласс: %d\n\n"+
			"🔗 Для ответа перейдите в чат: tg://user?id=%d",
		a.ApplicantID, a.Name, a.Year, a.Class, a.ApplicantID))

	d.logger.Info("applicant rejected", zap.Int64("applicant_id", a.ApplicantID))

	return nil
}

// Escalate leaves the join request pending and hands the collected answers
// to the operator, each case under its own reference id. Used for ambiguous
// matches, explicit operator requests and store failures.
func (d *Dispatcher) Escalate(a Attempt, reason string, candidates []db.AlumnusRecord) {
	ref := uuid.New().String()[:8]

	var sb strings.Builder
	fmt.Fprintf(&sb, "🆘 ТРЕБУЕТСЯ РУЧНАЯ ПРОВЕРКА [#%s]\n\n", ref)
	fmt.Fprintf(&sb, "Причина: %s\n\n", reason)
	fmt.Fprintf(&sb, "👤 Пользователь ID: %d\n📧 Никнейм: @%s\n", a.ApplicantID, a.Username)
	if a.Name != "" {
		fmt.Fprintf(&sb, "📝 Введённые данные:\nФИО: %s\nГод: %d\nКласс: %d\n", a.Name, a.Year, a.Class)
	}
	if len(candidates) > 0 {
		sb.WriteString("\nСовпадения в базе:\n")
		for _, c := range candidates {
			fmt.Fprintf(&sb, "- %s (%d-%d)\n", c.FullName, c.GraduationYear, c.ClassNumber)
		}
	}
	fmt.Fprintf(&sb, "\n🔗 Для ответа перейдите в чат: tg://user?id=%d", a.ApplicantID)

	d.NotifyOperator(sb.String())
	d.send(tgbotapi.NewMessage(a.ApplicantID, msgEscalated))

	d.logger.Info("applicant escalated",
		zap.Int64("applicant_id", a.ApplicantID),
		zap.String("ref", ref),
		zap.String("reason", reason))
}

func (d *Dispatcher) NotifyOperator(text string) {
	if d.operatorID == 0 {
		return
	}

	d.send(tgbotapi.NewMessage(d.operatorID, text))
}

func (d *Dispatcher) reportDispatchFailure(a Attempt, action string, err error) {
	d.logger.Error("telegram call rejected",
		zap.String("action", action),
		zap.Int64("applicant_id", a.ApplicantID),
		zap.Error(err))

	d.NotifyOperator(fmt.Sprintf(
		"⚠️ Не удалось выполнить действие %q для пользователя %d: %v\nЗаявка осталась без решения.",
		action, a.ApplicantID, err))
	d.send(tgbotapi.NewMessage(a.ApplicantID, dispatchErrorMessage(d.operatorMention())))
}

func (d *Dispatcher) send(c tgbotapi.Chattable) {
	if _, err := d.botAPI.Send(c); err != nil {
		d.logger.Error("cannot send message", zap.Error(err))
	}
}

func (d *Dispatcher) operatorMention() string {
	d.mentionOnce.Do(func() {
		d.mention = "admin"
		if d.operatorID == 0 {
			return
		}

		chat, err := d.botAPI.GetChat(tgbotapi.ChatInfoConfig{
			ChatConfig: tgbotapi.ChatConfig{ChatID: d.operatorID},
		})
		if err != nil {
			d.logger.Warn("cannot resolve operator username", zap.Error(err))

			return
		}
		if chat.UserName != "" {
			d.mention = "@" + chat.UserName
		}
	})

	return d.mention
}
