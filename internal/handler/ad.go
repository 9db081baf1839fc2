package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"study-assistant-bot/internal/service"
	"study-assistant-bot/internal/session"
)

// handleAdStart begins the two-step ritual: the viewing timer starts now and
// the link message replaces the gate prompt.
func (h *Handler) handleAdStart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	sess := h.sessions.Get(sender.ID, session.StateMainMenu)
	sess.RitualStartedAt = time.Now()

	seconds := int(h.gate.RequiredViewing().Seconds())
	if err := c.Respond(&tele.CallbackResponse{
		Text: fmt.Sprintf("يرجى الضغط على الرابط وانتظار %d ثوانٍ...", seconds),
	}); err != nil {
		return err
	}

	return c.Edit(fmt.Sprintf(
		"⚠️ الخطوات المطلوبة:\n"+
			"1. اضغط على الرابط أعلاه وانتظر في الصفحة لمدة %d ثوانٍ على الأقل.\n"+
			"2. اضغط على زر 'المتابعة بعد %d ثواني'.\n\n"+
			"🎁 ستحصل على %d نقاط مكافأة!",
		seconds, seconds, h.gate.Bonus(),
	), ritualMarkup(h.gate.AdLink(), seconds))
}

// handleAdCheck settles the ritual. Pressing continue with no timer running
// is a no-op; pressing early reports the remaining wait and leaves the timer.
func (h *Handler) handleAdCheck(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := context.Background()

	sess, ok := h.sessions.Peek(sender.ID)
	if !ok || sess.RitualStartedAt.IsZero() {
		return c.Respond(&tele.CallbackResponse{})
	}

	remaining, err := h.gate.CompleteRitual(ctx, sender.ID, sess.RitualStartedAt)
	if errors.Is(err, service.ErrRitualTooSoon) {
		secs := int(remaining.Seconds()) + 1
		return c.Respond(&tele.CallbackResponse{
			Text:      fmt.Sprintf("⏳ يجب الانتظار %d ثانية أخرى قبل المتابعة.", secs),
			ShowAlert: true,
		})
	}
	if err != nil {
		return c.Edit("❌ حدث خطأ في تصفير العداد. حاول /start.")
	}

	sess.RitualStartedAt = time.Time{}
	last := sess.BlockedQuestion
	sess.BlockedQuestion = ""
	if last == "" {
		last = "سؤالك الأخير"
	}

	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		return err
	}
	return c.Edit(fmt.Sprintf(
		"✅ شكراً لدعمك!\n\n"+
			"تم تصفير العداد وإضافة %d نقاط مكافأة!\n\n"+
			"يمكنك الآن إعادة طرح سؤالك السابق: %s",
		h.gate.Bonus(), last,
	))
}

// handleAdConfirm pays the one-step viewing bonus from the menu entry. The
// checkpoint counter is untouched.
func (h *Handler) handleAdConfirm(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	account, err := h.gate.ConfirmView(context.Background(), sender.ID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgGenericError, ShowAlert: true})
	}

	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		return err
	}
	return c.Edit(fmt.Sprintf(
		"✅ تم تأكيد المشاهدة!\n\n"+
			"🎁 المكافأة: %d نقاط\n"+
			"💎 رصيد النقاط الجديد: %d نقطة\n\n"+
			"شكراً لدعمك! 🙏",
		h.gate.Bonus(), account.Points,
	))
}
