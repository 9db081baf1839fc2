package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"study-assistant-bot/internal/model"
	"study-assistant-bot/internal/service"
	"study-assistant-bot/internal/session"
)

// isAdminToken reports whether the text is one of the admin entry tokens.
func isAdminToken(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == "/admin" || t == `\admin` || t == "admin"
}

func (h *Handler) handleMainMenu(ctx context.Context, c tele.Context, sess *session.Session) error {
	sender := c.Sender()
	text := c.Text()

	if isAdminToken(text) {
		sess.State = session.StateAwaitingAdminPassword
		return c.Send("🔐 لوحة المدير:\nالرجاء إدخال كلمة المرور:")
	}

	account, err := h.ledger.GetAccount(ctx, sender.ID)
	if err != nil {
		return c.Send(msgGenericError)
	}

	switch text {
	case btnSearch:
		if h.gate.ShouldBlock(account) {
			return h.sendGate(c)
		}
		return c.Send("🔍 وضع البحث العام\n\nاكتب سؤالك وسأجيبك بإجابة تعليمية شاملة:")

	case btnActivationID:
		return h.sendActivationID(c, account)

	case btnStats:
		return h.sendStats(ctx, c, account)

	case btnRefresh:
		if err := c.Send("🔄 جاري تحديث القائمة..."); err != nil {
			return err
		}
		return h.sendMainMenu(ctx, c, account)

	case btnPoints:
		return h.sendBalance(ctx, c, account)

	case btnConvert:
		sess.State = session.StateAwaitingConvertAmount
		return c.Send(fmt.Sprintf(
			"📤 تحويل النقاط لريال سعودي\n\n"+
				"الحد الأدنى للتحويل: %d نقطة\n"+
				"المعادلة: %d نقطة = 1 ريال\n\n"+
				"الرجاء إدخال عدد النقاط التي تريد تحويلها:",
			h.cfg.Economy.ConvertMinimum, h.cfg.Economy.ConvertRate,
		))

	case btnTransfer:
		sess.State = session.StateAwaitingTransferRecipient
		return c.Send("🔀 تحويل ريال لمستخدم آخر\n\nالرجاء إدخال الرمز الفريد للمستلم:")

	case btnBuyPremium:
		return h.handleBuyPremium(ctx, c, account)

	case btnReferral:
		return h.sendReferralInfo(c, account)

	case btnTasks:
		return h.showTasks(ctx, c, sess, account)

	case btnWatchAd:
		return h.sendWatchAd(c)

	case btnSupport:
		sess.State = session.StateAwaitingSupportMessage
		return h.sendSupportPrompt(ctx, c)

	case btnAdminMode:
		if !account.Manager {
			return c.Send("❌ ليس لديك صلاحيات المدير")
		}
		sess.Admin = true
		sess.State = session.StateAdminMenu
		return h.sendAdminMenu(c)
	}

	return h.handleQuestion(ctx, c, sess, account, text)
}

// handleQuestion runs the free-text question path: meta questions bypass
// everything, gated accounts get the ritual prompt, everyone else gets an
// answer from the collaborator.
func (h *Handler) handleQuestion(ctx context.Context, c tele.Context, sess *session.Session, account *model.Account, question string) error {
	if answer, ok := service.MetaAnswer(question); ok {
		return c.Send(answer)
	}

	if h.gate.ShouldBlock(account) {
		sess.BlockedQuestion = question
		h.answers.LogBlocked(ctx, account.TelegramID, question)
		return h.sendGate(c)
	}

	if err := c.Send("🧠 جاري البحث والمعالجة..."); err != nil {
		return err
	}

	answer, err := h.answers.Answer(ctx, account, question)
	if err != nil {
		log.Error().Err(err).Int64("account_id", account.TelegramID).Msg("Question answering failed")
		return c.Send("❌ حدث خطأ في المعالجة. جرب سؤالاً آخر.")
	}

	if err := c.Send(fmt.Sprintf("🎯 الإجابة التعليمية يا %s:\n\n%s", account.FullName, answer)); err != nil {
		return err
	}
	return c.Send("💡 هل لديك سؤال آخر؟ اكتبه مباشرة، أو اختر '🔄 تحديث القائمة' للعودة للقائمة الرئيسية.")
}

func (h *Handler) sendGate(c tele.Context) error {
	return c.Send(
		"🛑 نحتاج دعمك (إعلان):\n\n"+
			"أنت بحاجة لدعم البوت لتمويل استمرار الخدمة.\n\n"+
			"اضغط على الزر أدناه، ثم اتبع التعليمات في الرسالة التالية لتمكين سؤالك.",
		gateMarkup(),
	)
}

func (h *Handler) sendActivationID(c tele.Context, account *model.Account) error {
	var b strings.Builder
	fmt.Fprintf(&b, "🔑 الرمز الفريد الخاص بك:\n\n%s\n\n", account.ActivationCode)
	if account.Premium {
		b.WriteString("✨ حالة Premium: ✅ مفعل")
		if account.GiftPremium {
			b.WriteString(" (🎁 هدية)")
		}
	} else {
		b.WriteString("✨ حالة Premium: ❌ غير مفعل")
	}
	return c.Send(b.String())
}

func (h *Handler) sendStats(ctx context.Context, c tele.Context, account *model.Account) error {
	msg := fmt.Sprintf(
		"📊 إحصائياتك الدراسية\n\n"+
			"👤 الطالب: %s\n"+
			"🏫 المرحلة: %s\n"+
			"❓ عدد الأسئلة: %d\n"+
			"💎 النقاط: %d نقطة\n"+
			"💵 الريال: %d ريال\n"+
			"👥 الإحالات الناجحة: %d\n"+
			"🕒 آخر نشاط: %s",
		account.FullName, account.Stage, account.QuestionCount,
		account.Points, account.Currency, account.ReferralCount,
		account.LastActiveAt.Format("2006-01-02 15:04"),
	)

	if recent, err := h.answers.RecentQuestions(ctx, account.TelegramID, 3); err == nil {
		msg += recentQuestionLines(recent)
	}
	return c.Send(msg)
}

// recentQuestionLines renders the latest question log entries for the stats
// view. Empty log, empty section.
func recentQuestionLines(questions []*model.Question) string {
	if len(questions) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n❓ آخر أسئلتك:")
	for _, q := range questions {
		fmt.Fprintf(&b, "\n• %s", truncate(q.Text, 40))
	}
	return b.String()
}

func (h *Handler) sendBalance(ctx context.Context, c tele.Context, account *model.Account) error {
	msg := fmt.Sprintf(
		"💎 رصيدك الحالي:\n\n"+
			"🎁 النقاط: %d نقطة\n"+
			"💵 الريال: %d ريال\n\n"+
			"💡 طريقة الاستخدام:\n"+
			"• %d نقطة = 1 ريال سعودي\n"+
			"• يمكنك تحويل النقاط لريال\n"+
			"• يمكنك تحويل الريال لمستخدمين آخرين\n"+
			"• يمكنك شراء البريميم من رصيدك",
		account.Points, account.Currency, h.cfg.Economy.ConvertRate,
	)

	if history, err := h.ledger.History(ctx, account.TelegramID, 5); err == nil {
		msg += historyLines(account.TelegramID, history)
	}
	return c.Send(msg)
}

// kindLabels maps ledger provenance kinds to the labels shown in the
// balance history section.
var kindLabels = map[string]string{
	model.KindConvert:         "تحويل نقاط لريال",
	model.KindTransfer:        "تحويل ريال",
	model.KindPremiumPurchase: "شراء بريميم",
	model.KindAdminGrant:      "رصيد من الإدارة",
	model.KindReferralBonus:   "مكافأة إحالة",
	model.KindTaskReward:      "مكافأة مهمة",
	model.KindAdBonus:         "مكافأة إعلان",
}

// historyLines renders the account's recent ledger movements. Outgoing
// transfers show a minus sign; same-account operations never do.
func historyLines(accountID int64, transfers []*model.Transfer) string {
	if len(transfers) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n📜 آخر العمليات:")
	for _, t := range transfers {
		label, ok := kindLabels[t.Kind]
		if !ok {
			label = t.Kind
		}
		sign := ""
		if t.SenderID == accountID && t.RecipientID != accountID {
			sign = "-"
		}
		fmt.Fprintf(&b, "\n• %s: %s%d (%s)", label, sign, t.Amount, t.CreatedAt.Format("2006-01-02"))
	}
	return b.String()
}

func (h *Handler) sendReferralInfo(c tele.Context, account *model.Account) error {
	reward := h.cfg.Economy.ReferralReward
	return c.Send(fmt.Sprintf(
		"👥 نظام الإحالة\n\n"+
			"🔑 رمز الإحالة الخاص بك: %s\n\n"+
			"🎁 مكافأة الإحالة: %d نقطة لكل مستخدم جديد\n"+
			"📊 إحالاتك الناجحة: %d إحالة\n\n"+
			"طريقة الاستخدام:\n"+
			"1. شارك الرمز أعلاه مع أصدقائك\n"+
			"2. عند تسجيلهم، يستخدمون الرمز في التسجيل\n"+
			"3. تحصل على %d نقطة لكل إحالة ناجحة",
		account.ActivationCode, reward, account.ReferralCount, reward,
	))
}

// sendSupportPrompt shows the contact channels an admin chose to publish,
// then asks for the support message.
func (h *Handler) sendSupportPrompt(ctx context.Context, c tele.Context) error {
	var b strings.Builder
	b.WriteString("📞 مركز الدعم\n\n")

	if show, _ := h.settings.GetBool(ctx, service.SettingShowEmail); show {
		if email, err := h.settings.Get(ctx, service.SettingContactEmail); err == nil && email != "" {
			fmt.Fprintf(&b, "📧 البريد: %s\n", email)
		}
	}
	if show, _ := h.settings.GetBool(ctx, service.SettingShowInstagram); show {
		if insta, err := h.settings.Get(ctx, service.SettingContactInstagram); err == nil && insta != "" {
			fmt.Fprintf(&b, "📷 انستغرام: %s\n", insta)
		}
	}

	b.WriteString("\nالرجاء كتابة رسالتك للدعم وسيتم الرد عليك في أقرب وقت:")
	return c.Send(b.String())
}

func (h *Handler) sendWatchAd(c tele.Context) error {
	seconds := int(h.gate.RequiredViewing().Seconds())
	bonus := h.gate.Bonus()
	return c.Send(fmt.Sprintf(
		"🎬 مشاهدة إعلان\n\n"+
			"شاهد الإعلان لمدة %d ثوانٍ واحصل على %d نقاط!\n\n"+
			"الخطوات:\n"+
			"1. اضغط على الرابط وانتظر %d ثوانٍ\n"+
			"2. اضغط على زر التأكيد\n"+
			"3. احصل على %d نقاط مكافأة",
		seconds, bonus, seconds, bonus,
	), watchAdMarkup(h.gate.AdLink()))
}
