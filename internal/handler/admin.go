package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"study-assistant-bot/internal/model"
	"study-assistant-bot/internal/service"
	"study-assistant-bot/internal/session"
)

func (h *Handler) sendAdminMenu(c tele.Context) error {
	return c.Send("🛠️ قائمة المدير - منهج Ai\n\nاختر الإجراء المطلوب:", adminMenuMarkup())
}

// toAdminMenu clears the wizard scratch and re-shows the admin menu.
func (h *Handler) toAdminMenu(c tele.Context, sess *session.Session) error {
	sess.State = session.StateAdminMenu
	sess.GrantTarget = ""
	sess.TaskDraft = session.TaskDraft{}
	sess.ReplyTicketID = 0
	return h.sendAdminMenu(c)
}

func (h *Handler) handleAdminPassword(ctx context.Context, c tele.Context, sess *session.Session) error {
	if !h.cfg.IsAdminPassword(c.Text()) {
		sess.State = session.StateMainMenu
		return c.Send("❌ كلمة مرور خاطئة. الرجاء البدء بـ admin مرة أخرى.")
	}

	sess.Admin = true
	sess.State = session.StateAdminMenu
	if err := c.Send("✅ تم تسجيل الدخول كمدير!"); err != nil {
		return err
	}
	return h.sendAdminMenu(c)
}

func (h *Handler) handleAdminMenu(ctx context.Context, c tele.Context, sess *session.Session) error {
	switch c.Text() {
	case btnAdminAllUsers:
		return h.sendAllUsers(ctx, c)

	case btnAdminPremiumUsers:
		return h.sendPremiumUsers(ctx, c)

	case btnAdminFreeUsers:
		return h.sendFreeUsers(ctx, c)

	case btnAdminPointsStats:
		return h.sendPointsStats(ctx, c)

	case btnAdminAddTask:
		sess.State = session.StateAwaitingTaskLink
		return c.Send("➕ إضافة مهمة جديدة\n\nالرجاء إدخال رابط المهمة:")

	case btnAdminListTasks:
		return h.sendActiveTasks(ctx, c)

	case btnAdminActivate:
		sess.State = session.StateAwaitingPremiumActivationCode
		return c.Send("الرجاء إدخال الرمز الفريد للطالب المطلوب تفعيله:")

	case btnAdminDeactivate:
		sess.State = session.StateAwaitingPremiumDeactivationCode
		return c.Send("الرجاء إدخال الرمز الفريد للطالب المطلوب إلغاء تفعيله:")

	case btnAdminGift:
		sess.State = session.StateAwaitingGiftPremiumCode
		return c.Send("🎁 تفعيل بريميم هدية\n\nالرجاء إدخال الرمز الفريد للطالب المطلوب منحه الهدية:")

	case btnAdminAddManager:
		sess.State = session.StateAwaitingNewManagerCode
		return c.Send("🛠️ تعيين مدير جديد\n\nالرجاء إدخال الرمز الفريد للمستخدم:")

	case btnAdminBroadcast:
		sess.State = session.StateAwaitingBroadcastText
		return c.Send("📣 وضع الإشعار الجماعي\n\nالرجاء كتابة الرسالة الكاملة التي تريد إرسالها لجميع المستخدمين:")

	case btnAdminChangePrice:
		price, err := h.settings.Get(ctx, service.SettingPremiumPrice)
		if err != nil {
			return c.Send(msgGenericError)
		}
		sess.State = session.StateAwaitingNewPrice
		return c.Send(fmt.Sprintf(
			"💵 تغيير سعر البوت\n\n"+
				"السعر الحالي هو: %s\n"+
				"الرجاء إدخال السعر الجديد كاملاً (مثال: 50 دولار أمريكي، 100 جنيه مصري):",
			price,
		))

	case btnAdminSupport:
		return h.sendSupportTickets(ctx, c)

	case btnAdminGrantPoints:
		sess.State = session.StateAwaitingGrantPointsCode
		return c.Send("🎁 منح نقاط لمستخدم\n\nالرجاء إدخال الرمز الفريد للمستخدم:")

	case btnAdminGrantMoney:
		sess.State = session.StateAwaitingGrantCurrencyCode
		return c.Send("💸 منح ريال لمستخدم\n\nالرجاء إدخال الرمز الفريد للمستخدم:")

	case btnAdminContactMail:
		email, _ := h.settings.Get(ctx, service.SettingContactEmail)
		sess.State = session.StateAwaitingContactEmail
		return c.Send(fmt.Sprintf(
			"📧 تعديل بريد التواصل\n\nالبريد الحالي: %s\nالرجاء إدخال البريد الجديد (أو - لإخفائه):",
			orNone(email),
		))

	case btnAdminContactInsta:
		insta, _ := h.settings.Get(ctx, service.SettingContactInstagram)
		sess.State = session.StateAwaitingContactInstagram
		return c.Send(fmt.Sprintf(
			"📷 تعديل انستغرام التواصل\n\nالحساب الحالي: %s\nالرجاء إدخال الحساب الجديد (أو - لإخفائه):",
			orNone(insta),
		))

	case btnBack:
		if err := c.Send("↩️ تم تسجيل الخروج من وضع المدير."); err != nil {
			return err
		}
		return h.resetToMenu(ctx, c, c.Sender().ID)
	}

	return c.Send("اختيار غير صالح. الرجاء الاختيار من الأزرار.")
}

func orNone(s string) string {
	if s == "" {
		return "غير محدد"
	}
	return s
}

// Roster views.

func (h *Handler) sendAllUsers(ctx context.Context, c tele.Context) error {
	accounts, err := h.stats.AllAccounts(ctx)
	if err != nil {
		return c.Send("❌ حدث خطأ في جلب البيانات")
	}
	if len(accounts) == 0 {
		return c.Send("❌ لا يوجد طلاب مسجلين.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👥 قائمة جميع المستخدمين: (إجمالي: %d مستخدم)\n\n", len(accounts))
	for _, a := range accounts {
		status := "❌"
		if a.GiftPremium {
			status = "🎁"
		} else if a.Premium {
			status = "✅"
		}
		fmt.Fprintf(&b, "👤 %s | %s | %s | %s\n", a.FullName, a.ActivationCode, a.Stage, status)
	}
	return c.Send(b.String())
}

func (h *Handler) sendPremiumUsers(ctx context.Context, c tele.Context) error {
	accounts, err := h.stats.PremiumAccounts(ctx)
	if err != nil {
		return c.Send("❌ حدث خطأ في جلب البيانات")
	}
	if len(accounts) == 0 {
		return c.Send("❌ لا يوجد مشتركون حالياً في Premium.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✨ قائمة مشتركي Premium: (إجمالي: %d مشترك)\n\n", len(accounts))
	for _, a := range accounts {
		kind := "💳 مدفوع"
		if a.GiftPremium {
			kind = "🎁 هدية"
		}
		fmt.Fprintf(&b, "👤 %s | %s | %s\n", a.FullName, a.ActivationCode, kind)
	}
	return c.Send(b.String())
}

func (h *Handler) sendFreeUsers(ctx context.Context, c tele.Context) error {
	accounts, err := h.stats.FreeAccounts(ctx)
	if err != nil {
		return c.Send("❌ حدث خطأ في جلب البيانات")
	}
	if len(accounts) == 0 {
		return c.Send("✅ جميع المستخدمين مشتركون في Premium.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚫 قائمة غير المشتركين في Premium: (إجمالي: %d مستخدم)\n\n", len(accounts))
	for _, a := range accounts {
		fmt.Fprintf(&b, "👤 %s | %s\n", a.FullName, a.ActivationCode)
	}
	return c.Send(b.String())
}

func (h *Handler) sendPointsStats(ctx context.Context, c tele.Context) error {
	totals, err := h.stats.Totals(ctx)
	if err != nil {
		return c.Send("❌ حدث خطأ في جلب الإحصائيات")
	}
	top, err := h.stats.TopByPoints(ctx, 5)
	if err != nil {
		return c.Send("❌ حدث خطأ في جلب الإحصائيات")
	}

	var b strings.Builder
	b.WriteString("📊 إحصائيات النقاط\n\n")
	fmt.Fprintf(&b, "👥 عدد الحسابات: %d (منها %d بريميم)\n", totals.Accounts, totals.Premium)
	fmt.Fprintf(&b, "💰 إجمالي النقاط في النظام: %d نقطة\n", totals.Points)
	fmt.Fprintf(&b, "💵 إجمالي الريال في النظام: %d ريال\n\n", totals.Currency)
	b.WriteString("🏆 أعلى 5 مستخدمين:\n")
	for i, a := range top {
		fmt.Fprintf(&b, "%d. %s - %d نقطة - %d ريال\n", i+1, a.FullName, a.Points, a.Currency)
	}
	return c.Send(b.String())
}

func (h *Handler) sendActiveTasks(ctx context.Context, c tele.Context) error {
	tasks, err := h.tasks.ListActive(ctx)
	if err != nil {
		return c.Send("❌ حدث خطأ في جلب المهام")
	}
	if len(tasks) == 0 {
		return c.Send("📭 لا توجد مهام حالياً.")
	}

	var b strings.Builder
	b.WriteString("📋 المهام الحالية:\n\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "🔹 %s\n🔗 الرابط: %s\n💎 النقاط: %d\n🆔 الرقم: %d\n\n",
			t.Description, t.Link, t.Points, t.ID)
	}
	return c.Send(b.String())
}

// Premium wizards.

func (h *Handler) handlePremiumActivationCode(ctx context.Context, c tele.Context, sess *session.Session) error {
	code := strings.ToUpper(strings.TrimSpace(c.Text()))

	if _, err := h.ledger.ActivatePremium(ctx, code); err != nil {
		if errors.Is(err, service.ErrRecipientNotFound) {
			if err := c.Send(fmt.Sprintf("❌ فشل التفعيل!\n\nلم يتم العثور على طالب يملك الرمز: %s", code)); err != nil {
				return err
			}
			return h.toAdminMenu(c, sess)
		}
		if err := c.Send(msgGenericError); err != nil {
			return err
		}
		return h.toAdminMenu(c, sess)
	}

	if err := c.Send(fmt.Sprintf("✅ تم التفعيل بنجاح!\n\nتم تفعيل حالة Premium للرمز: %s", code)); err != nil {
		return err
	}
	return h.toAdminMenu(c, sess)
}

func (h *Handler) handlePremiumDeactivationCode(ctx context.Context, c tele.Context, sess *session.Session) error {
	code := strings.ToUpper(strings.TrimSpace(c.Text()))

	_, err := h.ledger.DeactivatePremium(ctx, code)
	switch {
	case errors.Is(err, service.ErrRecipientNotFound), errors.Is(err, service.ErrNotPremium):
		if err := c.Send(fmt.Sprintf("❌ فشل إلغاء التفعيل!\n\nلم يتم العثور على طالب مفعل بريميم يملك الرمز: %s", code)); err != nil {
			return err
		}
	case err != nil:
		if err := c.Send(msgGenericError); err != nil {
			return err
		}
	default:
		if err := c.Send(fmt.Sprintf("✅ تم إلغاء التفعيل بنجاح!\n\nتم إلغاء حالة Premium للرمز: %s", code)); err != nil {
			return err
		}
	}
	return h.toAdminMenu(c, sess)
}

func (h *Handler) handleGiftPremiumCode(ctx context.Context, c tele.Context, sess *session.Session) error {
	code := strings.ToUpper(strings.TrimSpace(c.Text()))

	if _, err := h.ledger.GiftPremium(ctx, code); err != nil {
		if errors.Is(err, service.ErrRecipientNotFound) {
			if err := c.Send(fmt.Sprintf("❌ فشل منح الهدية!\n\nلم يتم العثور على طالب يملك الرمز: %s", code)); err != nil {
				return err
			}
			return h.toAdminMenu(c, sess)
		}
		if err := c.Send(msgGenericError); err != nil {
			return err
		}
		return h.toAdminMenu(c, sess)
	}

	if err := c.Send(fmt.Sprintf("✅ تم منح الهدية بنجاح!\n\nتم تفعيل حالة Premium كهدية للرمز: %s", code)); err != nil {
		return err
	}
	return h.toAdminMenu(c, sess)
}

// Broadcast.

func (h *Handler) handleBroadcastText(ctx context.Context, c tele.Context, sess *session.Session) error {
	message := "📣 إشعار المسابقات/الفعاليات\n\n" + c.Text()

	if err := c.Send("🚀 جاري إرسال الإشعار الجماعي..."); err != nil {
		return err
	}

	sent, failed := h.broadcast(ctx, message)

	if err := c.Send(fmt.Sprintf(
		"✅ تم الانتهاء من الإرسال!\n\n"+
			"✅ الرسائل المرسلة بنجاح: %d\n"+
			"❌ الرسائل الفاشلة (قد يكون المستخدم حظر البوت): %d",
		sent, failed,
	)); err != nil {
		return err
	}
	return h.toAdminMenu(c, sess)
}

// broadcast delivers the message to every account, one send at a time with
// the configured pacing delay. Each failure is counted and logged; no send
// holds any account lock.
func (h *Handler) broadcast(ctx context.Context, message string) (sent, failed int) {
	ids, err := h.stats.AllAccountIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Broadcast roster fetch failed")
		return 0, 0
	}

	for _, id := range ids {
		if err := h.notifier.Notify(id, message); err != nil {
			failed++
			log.Warn().Err(err).Int64("account_id", id).Msg("Broadcast send failed")
		} else {
			sent++
		}
		time.Sleep(h.cfg.Broadcast.SendDelay)
	}
	return sent, failed
}

// Settings wizards.

func (h *Handler) handleNewPrice(ctx context.Context, c tele.Context, sess *session.Session) error {
	price := strings.TrimSpace(c.Text())

	if err := h.settings.Set(ctx, service.SettingPremiumPrice, price); err != nil {
		if err := c.Send("❌ فشل في حفظ السعر الجديد"); err != nil {
			return err
		}
		return h.toAdminMenu(c, sess)
	}

	if err := c.Send(fmt.Sprintf("✅ تم تحديث سعر البوت بنجاح!\n\nالسعر الجديد هو: %s", price)); err != nil {
		return err
	}
	return h.toAdminMenu(c, sess)
}

func (h *Handler) handleContactEmail(ctx context.Context, c tele.Context, sess *session.Session) error {
	return h.saveContact(ctx, c, sess,
		service.SettingContactEmail, service.SettingShowEmail, "✅ تم تحديث بريد التواصل.")
}

func (h *Handler) handleContactInstagram(ctx context.Context, c tele.Context, sess *session.Session) error {
	return h.saveContact(ctx, c, sess,
		service.SettingContactInstagram, service.SettingShowInstagram, "✅ تم تحديث حساب انستغرام.")
}

// saveContact stores a contact channel. A single dash hides the channel
// instead of replacing it.
func (h *Handler) saveContact(ctx context.Context, c tele.Context, sess *session.Session, valueKey, showKey, okMsg string) error {
	input := strings.TrimSpace(c.Text())

	var err error
	if input == "-" {
		err = h.settings.SetBool(ctx, showKey, false)
		okMsg = "✅ تم إخفاء قناة التواصل."
	} else {
		if err = h.settings.Set(ctx, valueKey, input); err == nil {
			err = h.settings.SetBool(ctx, showKey, true)
		}
	}
	if err != nil {
		if err := c.Send("❌ فشل في حفظ الإعداد"); err != nil {
			return err
		}
		return h.toAdminMenu(c, sess)
	}

	if err := c.Send(okMsg); err != nil {
		return err
	}
	return h.toAdminMenu(c, sess)
}

// Manager promotion.

func (h *Handler) handleNewManagerCode(ctx context.Context, c tele.Context, sess *session.Session) error {
	code := strings.ToUpper(strings.TrimSpace(c.Text()))

	account, err := h.stats.PromoteManager(ctx, code)
	if err != nil {
		if errors.Is(err, service.ErrRecipientNotFound) {
			return c.Send("❌ لم يتم العثور على مستخدم بهذا الرمز الفريد. الرجاء المحاولة مرة أخرى:")
		}
		if err := c.Send("❌ حدث خطأ في تعيين المدير"); err != nil {
			return err
		}
		return h.toAdminMenu(c, sess)
	}

	h.notify(account.TelegramID,
		"🎉 تهانينا!\n\n"+
			"تم تعيينك كمدير في بوت منهج Ai!\n"+
			"الآن يمكنك الدخول لوضع المدير من القائمة الرئيسية.")

	if err := c.Send(fmt.Sprintf("✅ تم تعيين %s كمدير بنجاح!", account.FullName)); err != nil {
		return err
	}
	return h.toAdminMenu(c, sess)
}

// Grants.

// handleGrantCode resolves the grant target for both grant wizards. The
// target code is re-prompted until it matches an account.
func (h *Handler) handleGrantCode(ctx context.Context, c tele.Context, sess *session.Session, next session.State, prompt string) error {
	code := strings.ToUpper(strings.TrimSpace(c.Text()))

	if _, err := h.referral.ValidateCode(ctx, code); err != nil {
		if errors.Is(err, service.ErrInvalidReferralCode) {
			return c.Send("❌ لم يتم العثور على مستخدم بهذا الرمز الفريد. الرجاء المحاولة مرة أخرى:")
		}
		if err := c.Send(msgGenericError); err != nil {
			return err
		}
		return h.toAdminMenu(c, sess)
	}

	sess.GrantTarget = code
	sess.State = next
	return c.Send(prompt)
}

func (h *Handler) handleGrantPointsAmount(ctx context.Context, c tele.Context, sess *session.Session) error {
	return h.handleGrantAmount(ctx, c, sess, h.ledger.GrantPoints,
		"لقد حصلت على %d نقطة هدية من الإدارة!\n💎 تم إضافتها لرصيدك تلقائياً",
		"✅ تم منح %d نقطة لـ %s بنجاح!")
}

func (h *Handler) handleGrantCurrencyAmount(ctx context.Context, c tele.Context, sess *session.Session) error {
	return h.handleGrantAmount(ctx, c, sess, h.ledger.GrantCurrency,
		"لقد حصلت على %d ريال هدية من الإدارة!\n💳 تم إضافتها لرصيدك تلقائياً",
		"✅ تم منح %d ريال لـ %s بنجاح!")
}

func (h *Handler) handleGrantAmount(ctx context.Context, c tele.Context, sess *session.Session,
	grant func(context.Context, string, int64) (*model.Account, error),
	notifyFmt, okFmt string,
) error {
	amount, err := parseAmount(c.Text())
	if err != nil {
		return c.Send("❌ الرجاء إدخال رقم صحيح")
	}

	if sess.GrantTarget == "" {
		if err := c.Send("❌ لم يتم تحديد مستخدم"); err != nil {
			return err
		}
		return h.toAdminMenu(c, sess)
	}

	account, err := grant(ctx, sess.GrantTarget, amount)
	switch {
	case errors.Is(err, service.ErrInsufficientBalance):
		if err := c.Send("❌ لا يمكن أن يصبح رصيد المستخدم سالباً"); err != nil {
			return err
		}
	case errors.Is(err, service.ErrRecipientNotFound):
		if err := c.Send("❌ لم يتم العثور على المستخدم"); err != nil {
			return err
		}
	case err != nil:
		if err := c.Send(msgGenericError); err != nil {
			return err
		}
	default:
		if amount > 0 {
			h.notify(account.TelegramID, "🎉 هدية من الإدارة!\n\n"+fmt.Sprintf(notifyFmt, amount))
		}
		if err := c.Send(fmt.Sprintf(okFmt, amount, account.FullName)); err != nil {
			return err
		}
	}
	return h.toAdminMenu(c, sess)
}

// notify sends a best-effort message; failures are logged only.
func (h *Handler) notify(recipientID int64, message string) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Notify(recipientID, message); err != nil {
		log.Warn().Err(err).Int64("recipient_id", recipientID).Msg("Notification failed")
	}
}
