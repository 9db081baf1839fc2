package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"study-assistant-bot/internal/model"
	"study-assistant-bot/internal/service"
	"study-assistant-bot/internal/session"
)

func parseAmount(text string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(text), 10, 64)
}

func (h *Handler) handleConvertAmount(ctx context.Context, c tele.Context, sess *session.Session) error {
	sender := c.Sender()

	points, err := parseAmount(c.Text())
	if err != nil {
		return c.Send("❌ الرجاء إدخال رقم صحيح")
	}

	currency, err := h.ledger.ConvertPoints(ctx, sender.ID, points)
	switch {
	case errors.Is(err, service.ErrInsufficientMinimum):
		if err := c.Send(fmt.Sprintf("❌ الحد الأدنى للتحويل هو %d نقطة", h.cfg.Economy.ConvertMinimum)); err != nil {
			return err
		}
	case errors.Is(err, service.ErrInsufficientBalance):
		if err := c.Send("❌ رصيد النقاط غير كافي"); err != nil {
			return err
		}
	case err != nil:
		if err := c.Send(msgGenericError); err != nil {
			return err
		}
	default:
		account, err := h.ledger.GetAccount(ctx, sender.ID)
		if err != nil {
			return c.Send(msgGenericError)
		}
		msg := fmt.Sprintf(
			"✅ تم تحويل %d نقطة إلى %d ريال\n\n"+
				"💎 رصيد النقاط الجديد: %d\n"+
				"💵 رصيد الريال الجديد: %d",
			points, currency, account.Points, account.Currency,
		)
		if err := c.Send(msg); err != nil {
			return err
		}
	}

	return h.resetToMenu(ctx, c, sender.ID)
}

func (h *Handler) handleTransferRecipient(ctx context.Context, c tele.Context, sess *session.Session) error {
	sess.TransferRecipientCode = strings.ToUpper(strings.TrimSpace(c.Text()))
	sess.State = session.StateAwaitingTransferAmount
	return c.Send("💸 الرجاء إدخال المبلغ بالريال الذي تريد تحويله:")
}

func (h *Handler) handleTransferAmount(ctx context.Context, c tele.Context, sess *session.Session) error {
	sender := c.Sender()

	amount, err := parseAmount(c.Text())
	if err != nil {
		return c.Send("❌ الرجاء إدخال رقم صحيح")
	}

	recipient, err := h.ledger.TransferCurrency(ctx, sender.ID, sess.TransferRecipientCode, amount)
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		if err := c.Send("❌ المبلغ يجب أن يكون أكبر من الصفر"); err != nil {
			return err
		}
	case errors.Is(err, service.ErrRecipientNotFound):
		if err := c.Send("❌ لم يتم العثور على مستخدم بهذا الرمز الفريد"); err != nil {
			return err
		}
	case errors.Is(err, service.ErrSelfTransfer):
		if err := c.Send("❌ لا يمكنك التحويل لنفسك"); err != nil {
			return err
		}
	case errors.Is(err, service.ErrInsufficientBalance):
		if err := c.Send("❌ رصيد الريال غير كافي"); err != nil {
			return err
		}
	case err != nil:
		if err := c.Send(msgGenericError); err != nil {
			return err
		}
	default:
		h.notifyTransfer(recipient, amount, sender.ID)

		account, err := h.ledger.GetAccount(ctx, sender.ID)
		if err != nil {
			return c.Send(msgGenericError)
		}
		msg := fmt.Sprintf(
			"✅ تم التحويل بنجاح!\n\n"+
				"💸 المبلغ: %d ريال\n"+
				"👤 المستلم: %s\n"+
				"💳 رصيدك الجديد: %d ريال",
			amount, recipient.FullName, account.Currency,
		)
		if err := c.Send(msg); err != nil {
			return err
		}
	}

	return h.resetToMenu(ctx, c, sender.ID)
}

// notifyTransfer tells the recipient about an incoming transfer. Best effort;
// the transfer already committed.
func (h *Handler) notifyTransfer(recipient *model.Account, amount, senderID int64) {
	if h.notifier == nil {
		return
	}
	sender, err := h.ledger.GetAccount(context.Background(), senderID)
	senderName := "مستخدم"
	if err == nil {
		senderName = sender.FullName
	}
	msg := fmt.Sprintf(
		"🎉 تحويل وارد\n\n"+
			"استلمت %d ريال من %s\n"+
			"💳 رصيدك الجديد: %d ريال",
		amount, senderName, recipient.Currency+amount,
	)
	if err := h.notifier.Notify(recipient.TelegramID, msg); err != nil {
		log.Warn().Err(err).Int64("recipient_id", recipient.TelegramID).Msg("Transfer notification failed")
	}
}

func (h *Handler) handleBuyPremium(ctx context.Context, c tele.Context, account *model.Account) error {
	if account.Premium {
		return c.Send("✅ أنت مشترك بالفعل في البريميم!")
	}

	updated, err := h.ledger.PurchasePremium(ctx, account.TelegramID)
	if err != nil {
		if errors.Is(err, service.ErrInsufficientBalance) {
			return c.Send(fmt.Sprintf(
				"❌ رصيدك غير كافي لشراء البريميم\n💳 السعر: %d ريال\n💵 رصيدك: %d ريال",
				h.cfg.Economy.PremiumCost, account.Currency,
			))
		}
		return c.Send(msgGenericError)
	}

	if err := c.Send(fmt.Sprintf(
		"🎉 تم شراء البريميم بنجاح!\n\n"+
			"✨ مميزات البريميم:\n"+
			"• إزالة الإعلانات تماماً\n"+
			"• إجابات أسرع\n"+
			"• دعم مميز\n\n"+
			"💳 رصيدك الجديد: %d ريال",
		updated.Currency,
	)); err != nil {
		return err
	}
	return h.sendMainMenu(ctx, c, updated)
}
