package handler

import (
	"context"
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"study-assistant-bot/internal/service"
	"study-assistant-bot/internal/session"
)

func (h *Handler) handleSupportMessage(ctx context.Context, c tele.Context, sess *session.Session) error {
	sender := c.Sender()

	if _, err := h.support.Open(ctx, sender.ID, c.Text()); err != nil {
		if err := c.Send("❌ حدث خطأ في إرسال الرسالة"); err != nil {
			return err
		}
		return h.resetToMenu(ctx, c, sender.ID)
	}

	if err := c.Send(
		"✅ تم إرسال رسالتك للدعم\n\n" +
			"سيتم الرد عليك في أقرب وقت ممكن.\n" +
			"شكراً لاتصالك بنا! 📞",
	); err != nil {
		return err
	}
	return h.resetToMenu(ctx, c, sender.ID)
}

// sendSupportTickets lists the unanswered tickets with a reply button each.
func (h *Handler) sendSupportTickets(ctx context.Context, c tele.Context) error {
	tickets, err := h.support.ListOpen(ctx)
	if err != nil {
		return c.Send(msgGenericError)
	}
	if len(tickets) == 0 {
		return c.Send("📭 لا توجد رسائل دعم جديدة.")
	}

	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(tickets))
	for _, t := range tickets {
		name := fmt.Sprintf("مستخدم %d", t.AccountID)
		if account, err := h.ledger.GetAccount(ctx, t.AccountID); err == nil {
			name = account.FullName
		}
		label := fmt.Sprintf("📩 %s - %s", name, truncate(t.Message, 30))
		rows = append(rows, markup.Row(markup.Data(label, fmt.Sprintf("%s%d", cbSupportReply, t.ID))))
	}
	markup.Inline(rows...)

	return c.Send(fmt.Sprintf(
		"📞 رسائل الدعم الجديدة (%d رسالة)\n\nاختر الرسالة للرد عليها:",
		len(tickets),
	), markup)
}

// handleSupportSelect arms the reply wizard for the chosen ticket.
func (h *Handler) handleSupportSelect(c tele.Context, ticketID int64) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	sess, ok := h.sessions.Peek(sender.ID)
	if !ok || !sess.Admin {
		return c.Respond(&tele.CallbackResponse{})
	}

	sess.ReplyTicketID = ticketID
	sess.State = session.StateAwaitingSupportReply

	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		return err
	}
	return c.Send(fmt.Sprintf("📩 الرد على الرسالة رقم %d:\n\nالرجاء كتابة الرد:", ticketID))
}

func (h *Handler) handleSupportReply(ctx context.Context, c tele.Context, sess *session.Session) error {
	if sess.ReplyTicketID == 0 {
		if err := c.Send("❌ لم يتم تحديد رسالة دعم"); err != nil {
			return err
		}
		return h.toAdminMenu(c, sess)
	}

	_, err := h.support.Reply(ctx, sess.ReplyTicketID, c.Text(), h.notifier)
	switch {
	case errors.Is(err, service.ErrTicketNotFound):
		if err := c.Send("❌ التذكرة غير موجودة أو تم الرد عليها مسبقاً"); err != nil {
			return err
		}
	case err != nil:
		if err := c.Send("❌ فشل في إرسال الرد"); err != nil {
			return err
		}
	default:
		if err := c.Send("✅ تم إرسال الرد بنجاح!"); err != nil {
			return err
		}
	}

	return h.toAdminMenu(c, sess)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
