// Package handler implements the Telegram conversation layer: one router
// dispatches free text on the session state, callbacks settle the ad ritual
// and task completions.
package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"study-assistant-bot/internal/config"
	"study-assistant-bot/internal/model"
	"study-assistant-bot/internal/service"
	"study-assistant-bot/internal/session"
)

const msgGenericError = "❌ حدث خطأ. الرجاء المحاولة لاحقاً."

// Handler carries the services behind every conversation flow.
type Handler struct {
	cfg      *config.Config
	sessions *session.Store
	ledger   *service.LedgerService
	gate     *service.GateService
	referral *service.ReferralService
	tasks    *service.TaskService
	support  *service.SupportService
	stats    *service.StatsService
	settings *service.SettingsService
	answers  *service.AnswerService
	notifier service.Notifier
}

// Dependencies holds everything a Handler needs.
type Dependencies struct {
	Config   *config.Config
	Sessions *session.Store
	Ledger   *service.LedgerService
	Gate     *service.GateService
	Referral *service.ReferralService
	Tasks    *service.TaskService
	Support  *service.SupportService
	Stats    *service.StatsService
	Settings *service.SettingsService
	Answers  *service.AnswerService
	Notifier service.Notifier
}

// New creates a new Handler.
func New(deps *Dependencies) *Handler {
	return &Handler{
		cfg:      deps.Config,
		sessions: deps.Sessions,
		ledger:   deps.Ledger,
		gate:     deps.Gate,
		referral: deps.Referral,
		tasks:    deps.Tasks,
		support:  deps.Support,
		stats:    deps.Stats,
		settings: deps.Settings,
		answers:  deps.Answers,
		notifier: deps.Notifier,
	}
}

// SetNotifier installs the outbound message sender. The bot wires itself in
// after construction.
func (h *Handler) SetNotifier(n service.Notifier) {
	h.notifier = n
}

// HandleText routes every incoming text message on the session state.
// A message with no session behaves like /start.
func (h *Handler) HandleText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := context.Background()

	sess, ok := h.sessions.Peek(sender.ID)
	if !ok {
		return h.HandleStart(c)
	}

	if strings.TrimSpace(c.Text()) == "إلغاء" {
		return h.HandleCancel(c)
	}

	// Admin states past the password prompt require the ephemeral flag.
	if sess.State.IsAdmin() && sess.State != session.StateAwaitingAdminPassword && !sess.Admin {
		return h.resetToMenu(ctx, c, sender.ID)
	}

	switch sess.State {
	case session.StateAwaitingName:
		return h.handleName(ctx, c, sess)
	case session.StateAwaitingStage:
		return h.handleStage(ctx, c, sess)
	case session.StateAwaitingCountry:
		return h.handleCountry(ctx, c, sess)
	case session.StateAwaitingReferralCode:
		return h.handleReferralCode(ctx, c, sess)
	case session.StateMainMenu:
		return h.handleMainMenu(ctx, c, sess)
	case session.StateAwaitingConvertAmount:
		return h.handleConvertAmount(ctx, c, sess)
	case session.StateAwaitingTransferRecipient:
		return h.handleTransferRecipient(ctx, c, sess)
	case session.StateAwaitingTransferAmount:
		return h.handleTransferAmount(ctx, c, sess)
	case session.StateAwaitingSupportMessage:
		return h.handleSupportMessage(ctx, c, sess)
	case session.StateTasksMenu:
		return h.handleTasksMenu(ctx, c, sess)
	case session.StateAwaitingAdminPassword:
		return h.handleAdminPassword(ctx, c, sess)
	case session.StateAdminMenu:
		return h.handleAdminMenu(ctx, c, sess)
	case session.StateAwaitingPremiumActivationCode:
		return h.handlePremiumActivationCode(ctx, c, sess)
	case session.StateAwaitingPremiumDeactivationCode:
		return h.handlePremiumDeactivationCode(ctx, c, sess)
	case session.StateAwaitingGiftPremiumCode:
		return h.handleGiftPremiumCode(ctx, c, sess)
	case session.StateAwaitingBroadcastText:
		return h.handleBroadcastText(ctx, c, sess)
	case session.StateAwaitingNewPrice:
		return h.handleNewPrice(ctx, c, sess)
	case session.StateAwaitingNewManagerCode:
		return h.handleNewManagerCode(ctx, c, sess)
	case session.StateAwaitingSupportReply:
		return h.handleSupportReply(ctx, c, sess)
	case session.StateAwaitingTaskLink:
		return h.handleTaskLink(ctx, c, sess)
	case session.StateAwaitingTaskDescription:
		return h.handleTaskDescription(ctx, c, sess)
	case session.StateAwaitingTaskPoints:
		return h.handleTaskPoints(ctx, c, sess)
	case session.StateAwaitingGrantPointsCode:
		return h.handleGrantCode(ctx, c, sess, session.StateAwaitingGrantPointsAmount, "💎 الرجاء إدخال عدد النقاط التي تريد منحها:")
	case session.StateAwaitingGrantPointsAmount:
		return h.handleGrantPointsAmount(ctx, c, sess)
	case session.StateAwaitingGrantCurrencyCode:
		return h.handleGrantCode(ctx, c, sess, session.StateAwaitingGrantCurrencyAmount, "💸 الرجاء إدخال المبلغ بالريال الذي تريد منحه:")
	case session.StateAwaitingGrantCurrencyAmount:
		return h.handleGrantCurrencyAmount(ctx, c, sess)
	case session.StateAwaitingContactEmail:
		return h.handleContactEmail(ctx, c, sess)
	case session.StateAwaitingContactInstagram:
		return h.handleContactInstagram(ctx, c, sess)
	}
	return nil
}

// HandleCallback routes inline button callbacks by data prefix.
func (h *Handler) HandleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	data := strings.TrimPrefix(callback.Data, "\f")

	switch {
	case data == cbAdStart:
		return h.handleAdStart(c)
	case data == cbAdCheck:
		return h.handleAdCheck(c)
	case data == cbAdConfirm:
		return h.handleAdConfirm(c)
	case data == cbSkipReferral:
		return h.handleSkipReferral(c)
	case strings.HasPrefix(data, cbTaskDone):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, cbTaskDone), 10, 64)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{})
		}
		return h.handleTaskDone(c, id)
	case strings.HasPrefix(data, cbSupportReply):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, cbSupportReply), 10, 64)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{})
		}
		return h.handleSupportSelect(c, id)
	}
	return c.Respond(&tele.CallbackResponse{})
}

// HandleCancel aborts whatever flow is active and restarts from /start
// semantics: main menu for registered accounts, greeting otherwise.
func (h *Handler) HandleCancel(c tele.Context) error {
	if err := c.Send("↩️ تم إلغاء العملية."); err != nil {
		return err
	}
	return h.HandleStart(c)
}

// resetToMenu discards the session and lands the user on a fresh main menu.
func (h *Handler) resetToMenu(ctx context.Context, c tele.Context, userID int64) error {
	h.sessions.Reset(userID, session.StateMainMenu)
	account, err := h.ledger.GetAccount(ctx, userID)
	if err != nil {
		return c.Send(msgGenericError)
	}
	return h.sendMainMenu(ctx, c, account)
}

// sendMainMenu renders the balance header and the main reply keyboard.
func (h *Handler) sendMainMenu(ctx context.Context, c tele.Context, account *model.Account) error {
	price, err := h.settings.Get(ctx, service.SettingPremiumPrice)
	if err != nil {
		price = ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📚 بوت منهج Ai - %s (%s)\n\n", account.Stage, account.Country)
	fmt.Fprintf(&b, "💎 رصيد النقاط: %d نقطة\n", account.Points)
	fmt.Fprintf(&b, "💵 رصيد الريال: %d ريال\n\n", account.Currency)
	b.WriteString("🧠 البحث العام الجاهز\n")
	b.WriteString("💡 اكتب سؤالك مباشرة وسأجيبك بإجابة منهجية شاملة\n")
	if account.Premium {
		b.WriteString("\n✨ Premium: ✅ مفعل")
	} else {
		b.WriteString("\n✨ Premium: ❌ غير مفعل")
		fmt.Fprintf(&b, "\n\n💎 تفعيل Premium (إزالة الإعلانات):\n💰 السعر: %s\n💳 أو ادفع من رصيدك: %d ريال",
			price, h.cfg.Economy.PremiumCost)
	}

	return c.Send(b.String(), mainMenuMarkup(account.Manager))
}
