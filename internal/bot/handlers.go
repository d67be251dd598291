package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/club30ka/gatebot/internal/config"
	"github.com/club30ka/gatebot/internal/match"
)

type BotService struct {
	botAPI     *tgbotapi.BotAPI
	matcher    *match.Matcher
	sessions   *SessionStore
	dispatcher *Dispatcher
	screen     *Screen
	cfg        *config.Config
	logger     *zap.Logger

	mu       sync.Mutex
	verified map[int64]bool
	attempts map[int64]Attempt
}

func New(
	botAPI *tgbotapi.BotAPI,
	matcher *match.Matcher,
	sessions *SessionStore,
	dispatcher *Dispatcher,
	screen *Screen,
	cfg *config.Config,
	logger *zap.Logger,
) *BotService {
	return &BotService{
		botAPI:     botAPI,
		matcher:    matcher,
		sessions:   sessions,
		dispatcher: dispatcher,
		screen:     screen,
		cfg:        cfg,
		logger:     logger,
		verified:   make(map[int64]bool),
		attempts:   make(map[int64]Attempt),
	}
}

// Run consumes webhook updates until the channel closes or the context is
// cancelled. Every update is handled on its own goroutine so a slow
// database lookup for one applicant never stalls another's conversation;
// per-session locks keep each applicant's updates serialized.
func (b *BotService) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	go b.sweepLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *BotService) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if evicted := b.sessions.Sweep(now); evicted > 0 {
				b.logger.Info("expired sessions evicted", zap.Int("count", evicted))
			}
		}
	}
}

func (b *BotService) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic while handling update", zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch {
	case update.ChatJoinRequest != nil:
		b.handleJoinRequest(ctx, update.ChatJoinRequest)
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil && update.Message.Chat != nil && update.Message.Chat.IsPrivate():
		b.handleMessage(ctx, update.Message)
	}
}

// handleJoinRequest mirrors what happens when someone knocks on the group's
// door: the operator hears about it, applicants verified earlier in direct
// messages walk straight in, a bio with the full triple is decided on the
// spot, and everyone else is sent to the questions.
func (b *BotService) handleJoinRequest(ctx context.Context, req *tgbotapi.ChatJoinRequest) {
	userID := req.From.ID
	chatID := req.Chat.ID
	uname := req.From.UserName
	if uname == "" {
		uname = strconv.FormatInt(userID, 10)
	}

	b.logger.Info("join request received",
		zap.Int64("applicant_id", userID),
		zap.Int64("chat_id", chatID))

	warning := ""
	if found := b.screen.Check(req.From.FirstName, req.From.LastName, req.From.UserName); len(found) > 0 {
		warning = fmt.Sprintf("\n⚠️ ВНИМАНИЕ: в профиле обнаружены запрещённые слова: %s", strings.Join(found, ", "))
	}

	b.dispatcher.NotifyOperator(fmt.Sprintf(
		"🆕 НОВАЯ ЗАЯВКА НА ВСТУПЛЕНИЕ В ЧАТ\n\n"+
			"👤 Пользователь: %s %s\n📧 Никнейм: @%s\n🆔 ID: %d\n📝 Bio: %s%s\n\n"+
			"🔗 Для ответа перейдите в чат: tg://user?id=%d",
		req.From.FirstName, req.From.LastName, uname, userID,
		orDash(req.Bio), warning, userID))

	a := Attempt{ApplicantID: userID, GroupChatID: chatID, Username: uname}

	if b.isVerified(userID) {
		if err := b.dispatcher.ApprovePending(a); err == nil {
			b.clearVerified(userID)
		}

		return
	}

	if req.Bio != "" {
		if name, year, class, ok := match.ParseTriple(req.Bio, b.cfg.YearMin, b.cfg.YearMax); ok {
			b.sessions.Delete(userID)
			a.Name = match.NormalizeName(name)
			a.Year = year
			a.Class = class
			b.decideAndDispatch(ctx, a)

			return
		}

		if err := b.dispatcher.DeclineIncomplete(a); err != nil {
			b.logger.Error("cannot decline join request", zap.Int64("applicant_id", userID), zap.Error(err))
		}

		return
	}

	// No bio: remember the pending request and invite the applicant to the
	// questions. The prompt only arrives if they have already opened a chat
	// with the bot; otherwise the operator notification above is the trail.
	s := b.sessions.GetOrCreate(userID)
	s.mu.Lock()
	s.GroupChatID = chatID
	s.mu.Unlock()

	b.reply(userID, msgGreeting)
}

func (b *BotService) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	userID := msg.From.ID
	text := msg.Text

	if found := b.screen.Check(msg.From.FirstName, msg.From.LastName, msg.From.UserName); len(found) > 0 {
		b.logger.Info("message rejected: forbidden words in profile",
			zap.Int64("applicant_id", userID),
			zap.Strings("words", found))
		b.reply(userID, msgFixProfile)

		return
	}

	lower := strings.ToLower(strings.TrimSpace(text))

	if lower == "/start" {
		b.sessions.Reset(userID)
		b.reply(userID, msgGreeting)

		return
	}

	if s, ok := b.sessions.Get(userID); ok {
		b.handleFlowMessage(ctx, s, msg)

		return
	}

	if name, year, class, ok := match.ParseTriple(text, b.cfg.YearMin, b.cfg.YearMax); ok {
		// Claim through a session so a rapid duplicate of the same message
		// cannot produce a second decision.
		s := b.sessions.GetOrCreate(userID)
		a, taken := takeTriple(s, username(msg.From), name, year, class)
		if !taken {
			return
		}

		b.sessions.Delete(userID)
		b.decideAndDispatch(ctx, a)

		return
	}

	// A lone "Имя Фамилия" means the applicant skipped straight to the
	// point; walk them through the questions instead.
	if isNamePair(text) {
		b.sessions.Reset(userID)
		b.reply(userID, msgGreeting)

		return
	}

	// Something that was meant to be the triple but did not parse gets the
	// format hint; plain chatter gets the short instruction.
	if strings.Contains(text, ":") || len(strings.Fields(text)) >= 3 {
		b.reply(userID, msgIncompleteData)

		return
	}

	b.reply(userID, msgInstruction)
}

func (b *BotService) handleFlowMessage(ctx context.Context, s *Session, msg *tgbotapi.Message) {
	// A full triple in one message at the start of the flow skips the
	// remaining questions.
	if name, year, class, ok := match.ParseTriple(msg.Text, b.cfg.YearMin, b.cfg.YearMax); ok {
		if a, taken := takeTriple(s, username(msg.From), name, year, class); taken {
			b.sessions.Delete(a.ApplicantID)
			b.decideAndDispatch(ctx, a)

			return
		}
	}

	s.mu.Lock()
	ev, reply := advance(s, msg.Text, b.cfg.YearMin, b.cfg.YearMax)
	a := s.snapshot(username(msg.From))
	s.mu.Unlock()

	switch ev {
	case eventComplete:
		b.sessions.Delete(a.ApplicantID)
		b.decideAndDispatch(ctx, a)
	case eventEscalate:
		b.sessions.Delete(a.ApplicantID)
		b.rememberAttempt(a)
		b.dispatcher.Escalate(a, "пользователь попросил связаться с администратором", nil)
	case eventCancel:
		b.sessions.Delete(a.ApplicantID)
		b.reply(a.ApplicantID, reply)
	default:
		if reply != "" {
			b.reply(a.ApplicantID, reply)
		}
	}
}

func (b *BotService) handleCallback(q *tgbotapi.CallbackQuery) {
	if q.Data != callbackContactAdmin || q.From == nil {
		return
	}

	if _, err := b.botAPI.Request(tgbotapi.NewCallback(q.ID, "Ваш запрос отправлен администратору")); err != nil {
		b.logger.Error("cannot answer callback query", zap.Error(err))
	}

	a, ok := b.lastAttempt(q.From.ID)
	if !ok {
		a = Attempt{ApplicantID: q.From.ID, Username: username(q.From)}
	}

	b.dispatcher.Escalate(a, "пользователь утверждает, что является выпускником, но не найден в базе", nil)
}

// decideAndDispatch runs the matcher on a completed attempt and carries out
// the outcome. A store failure never guesses: the case goes to the operator.
func (b *BotService) decideAndDispatch(ctx context.Context, a Attempt) {
	decision, err := b.matcher.Decide(ctx, a.Name, a.Year, a.Class)
	if err != nil {
		b.logger.Error("matcher failed", zap.Int64("applicant_id", a.ApplicantID), zap.Error(err))
		b.rememberAttempt(a)
		b.dispatcher.Escalate(a, "база данных недоступна, нужна ручная проверка", nil)

		return
	}

	switch decision.Verdict {
	case match.VerdictApprove:
		if err := b.dispatcher.Approve(ctx, a, decision.Record); err != nil {
			return
		}
		if a.GroupChatID == 0 {
			// Verified before any join request was seen; approve the real
			// request whenever it arrives.
			b.markVerified(a.ApplicantID)
		}
	case match.VerdictReject:
		b.rememberAttempt(a)
		if err := b.dispatcher.Reject(a); err != nil {
			b.logger.Error("reject dispatch failed", zap.Int64("applicant_id", a.ApplicantID), zap.Error(err))
		}
	case match.VerdictAmbiguous:
		b.rememberAttempt(a)
		b.dispatcher.Escalate(a, "несколько совпадений в базе", decision.Candidates)
	}
}

func (b *BotService) isVerified(applicantID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.verified[applicantID]
}

func (b *BotService) markVerified(applicantID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.verified[applicantID] = true
}

func (b *BotService) clearVerified(applicantID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.verified, applicantID)
}

// rememberAttempt keeps the last collected answers so the contact-admin
// button can forward them after the session is gone.
func (b *BotService) rememberAttempt(a Attempt) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.attempts[a.ApplicantID] = a
}

func (b *BotService) lastAttempt(applicantID int64) (Attempt, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.attempts[applicantID]

	return a, ok
}

func (b *BotService) reply(chatID int64, text string) {
	if _, err := b.botAPI.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error("cannot send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func username(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.UserName != "" {
		return u.UserName
	}

	return strconv.FormatInt(u.ID, 10)
}

func isNamePair(text string) bool {
	parts := strings.Fields(text)
	if len(parts) != 2 {
		return false
	}

	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsLetter(r) {
				return false
			}
		}
	}

	return true
}

func orDash(s string) string {
	if s == "" {
		return "(нет bio)"
	}

	return s
}
