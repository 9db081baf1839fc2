package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"study-assistant-bot/internal/model"
	"study-assistant-bot/internal/service"
	"study-assistant-bot/internal/session"
)

// HandleStart restarts the conversation: registered accounts land on a fresh
// main menu, everyone else enters the registration wizard. Any in-flight
// scratch data is discarded.
func (h *Handler) HandleStart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := context.Background()

	account, err := h.ledger.GetAccount(ctx, sender.ID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			h.sessions.Reset(sender.ID, session.StateAwaitingName)
			return c.Send(fmt.Sprintf(
				"🎓 أهلاً بك %s!\n\n"+
					"أنا بوت منهج Ai 🧠 للإجابات المنهجية الشاملة.\n\n"+
					"الرجاء إدخال اسمك الثلاثي كاملاً:\n"+
					"👉 الاسم الأول + اسم الأب + اسم الجد\n\n"+
					"مثال: محمد عبدالله الفهد",
				sender.FirstName,
			))
		}
		return c.Send(msgGenericError)
	}

	h.sessions.Reset(sender.ID, session.StateMainMenu)
	if err := c.Send(fmt.Sprintf("🎓 أهلاً بعودتك %s!", account.FullName)); err != nil {
		return err
	}
	return h.sendMainMenu(ctx, c, account)
}

func (h *Handler) handleName(ctx context.Context, c tele.Context, sess *session.Session) error {
	name := strings.TrimSpace(c.Text())

	if err := ValidateFullName(name); err != nil {
		return c.Send(err.Error() + "\n\nالرجاء إدخال الاسم الثلاثي مرة أخرى:")
	}

	sess.Draft.FullName = name
	sess.State = session.StateAwaitingStage
	return c.Send(
		fmt.Sprintf("👤 تم التسجيل: %s\n\n🏫 الآن اختر مرحلتك الدراسية:", name),
		stageMarkup(),
	)
}

func (h *Handler) handleStage(ctx context.Context, c tele.Context, sess *session.Session) error {
	stage := c.Text()
	if !model.IsEducationStage(stage) {
		return c.Send("❌ مرحلة دراسية غير صالحة. الرجاء اختيار من القائمة:")
	}

	sess.Draft.Stage = stage
	sess.State = session.StateAwaitingCountry
	return c.Send(
		fmt.Sprintf("✅ المرحلة المختارة: %s\n\n🌍 الآن اختر دولتك ليتم توجيه الإجابات حسب المنهج:", stage),
		countryMarkup(),
	)
}

func (h *Handler) handleCountry(ctx context.Context, c tele.Context, sess *session.Session) error {
	country := c.Text()
	if !model.IsArabCountry(country) {
		return c.Send("❌ دولة غير صالحة. الرجاء اختيار من القائمة:")
	}

	sess.Draft.Country = country
	sess.State = session.StateAwaitingReferralCode
	return c.Send(
		fmt.Sprintf(
			"✅ أخيراً:\n\n"+
				"👤 الطالب: %s\n"+
				"🏫 المرحلة: %s\n"+
				"🌍 الدولة: %s\n\n"+
				"💡 هل لديك رمز إحالة من صديق؟\n"+
				"أدخل الرمز الآن، أو اضغط تخطي (أو /skip).",
			sess.Draft.FullName, sess.Draft.Stage, sess.Draft.Country,
		),
		skipReferralMarkup(),
	)
}

func (h *Handler) handleReferralCode(ctx context.Context, c tele.Context, sess *session.Session) error {
	code := strings.ToUpper(strings.TrimSpace(c.Text()))
	if code == "/SKIP" {
		return h.finishRegistration(ctx, c, sess, nil, "")
	}

	referrer, err := h.referral.ValidateCode(ctx, code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReferralCode) {
			return c.Send("❌ رمز الإحالة غير صحيح. الرجاء التحقق والمحاولة مرة أخرى:")
		}
		return c.Send(msgGenericError)
	}

	return h.finishRegistration(ctx, c, sess, &code, referrer.FullName)
}

// HandleSkip covers the /skip command while the referral prompt is active.
// Outside that state the command is ignored.
func (h *Handler) HandleSkip(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	sess, ok := h.sessions.Peek(sender.ID)
	if !ok || sess.State != session.StateAwaitingReferralCode {
		return nil
	}
	return h.finishRegistration(context.Background(), c, sess, nil, "")
}

// handleSkipReferral covers the inline skip button on the referral prompt.
func (h *Handler) handleSkipReferral(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	sess, ok := h.sessions.Peek(sender.ID)
	if !ok || sess.State != session.StateAwaitingReferralCode {
		return c.Respond(&tele.CallbackResponse{})
	}
	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		return err
	}
	return h.finishRegistration(context.Background(), c, sess, nil, "")
}

func (h *Handler) finishRegistration(ctx context.Context, c tele.Context, sess *session.Session, referralCode *string, referrerName string) error {
	sender := c.Sender()

	account, err := h.referral.Register(ctx, sender.ID,
		sess.Draft.FullName, sess.Draft.Stage, sess.Draft.Country,
		referralCode, h.notifier)
	if err != nil {
		return c.Send("❌ حدث خطأ في التسجيل. الرجاء المحاولة بـ /start من جديد.")
	}

	h.sessions.Reset(sender.ID, session.StateMainMenu)

	var b strings.Builder
	fmt.Fprintf(&b, "✅ تم التسجيل بنجاح!\n\n")
	fmt.Fprintf(&b, "👤 الطالب: %s\n", account.FullName)
	fmt.Fprintf(&b, "🏫 المرحلة: %s\n", account.Stage)
	fmt.Fprintf(&b, "🌍 الدولة: %s\n", account.Country)
	fmt.Fprintf(&b, "🔑 الرمز الفريد: %s\n\n", account.ActivationCode)
	fmt.Fprintf(&b, "🎁 مكافأة ترحيب: %d نقطة!\n", h.cfg.Economy.WelcomeBonus)
	fmt.Fprintf(&b, "💎 رصيد النقاط: %d نقطة\n", account.Points)
	if referralCode != nil {
		fmt.Fprintf(&b, "\n✅ تم تفعيل رمز الإحالة بنجاح!\n👥 المحيل: %s\n", referrerName)
	}
	b.WriteString("\nيمكنك الآن:\n")
	b.WriteString("• كسب النقاط عبر الإحالات والمهام\n")
	b.WriteString("• تحويل النقاط لريال سعودي\n")
	b.WriteString("• شراء البريميم من رصيدك")

	if err := c.Send(b.String()); err != nil {
		return err
	}
	return h.sendMainMenu(ctx, c, account)
}
