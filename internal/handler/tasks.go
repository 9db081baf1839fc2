package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"study-assistant-bot/internal/model"
	"study-assistant-bot/internal/service"
	"study-assistant-bot/internal/session"
)

// showTasks lists the tasks visible to the account's level. Completion
// happens through the inline buttons; the reply keyboard shrinks to a back
// button while the tasks view is open.
func (h *Handler) showTasks(ctx context.Context, c tele.Context, sess *session.Session, account *model.Account) error {
	tasks, err := h.tasks.Available(ctx, account)
	if err != nil {
		return c.Send(msgGenericError)
	}
	if len(tasks) == 0 {
		return c.Send("📭 لا توجد مهام متاحة حالياً.")
	}

	sess.State = session.StateTasksMenu
	if err := c.Send("📋 المهام المتاحة:", backMarkup()); err != nil {
		return err
	}
	return c.Send(
		"افتح رابط المهمة، أكملها، ثم اضغط زر الإنجاز:",
		tasksMarkup(tasks),
	)
}

func (h *Handler) handleTasksMenu(ctx context.Context, c tele.Context, sess *session.Session) error {
	if c.Text() == btnBack {
		return h.resetToMenu(ctx, c, c.Sender().ID)
	}
	return c.Send("❌ اختر المهمة من الأزرار أعلاه، أو اضغط " + btnBack)
}

// Admin task-creation wizard: link, then description, then reward.

func (h *Handler) handleTaskLink(ctx context.Context, c tele.Context, sess *session.Session) error {
	sess.TaskDraft.Link = strings.TrimSpace(c.Text())
	sess.State = session.StateAwaitingTaskDescription
	return c.Send("📝 الرجاء إدخال وصف المهمة:")
}

func (h *Handler) handleTaskDescription(ctx context.Context, c tele.Context, sess *session.Session) error {
	sess.TaskDraft.Description = strings.TrimSpace(c.Text())
	sess.State = session.StateAwaitingTaskPoints
	return c.Send("💎 الرجاء إدخال عدد النقاط للمهمة:")
}

func (h *Handler) handleTaskPoints(ctx context.Context, c tele.Context, sess *session.Session) error {
	points, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil || points <= 0 {
		return c.Send("❌ الرجاء إدخال رقم صحيح موجب للنقاط")
	}

	task, err := h.tasks.CreateTask(ctx, sess.TaskDraft.Link, sess.TaskDraft.Description, points)
	if err != nil {
		if err := c.Send("❌ فشل في إضافة المهمة"); err != nil {
			return err
		}
		return h.toAdminMenu(c, sess)
	}

	if err := c.Send(fmt.Sprintf("✅ تم إضافة المهمة بنجاح!\n\n📋 %s\n💎 %d نقطة", task.Description, task.Points)); err != nil {
		return err
	}
	return h.toAdminMenu(c, sess)
}

// handleTaskDone settles a task completion callback. The reward is credited
// exactly once; repeats answer with an alert and change nothing.
func (h *Handler) handleTaskDone(c tele.Context, taskID int64) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := context.Background()

	reward, err := h.tasks.Complete(ctx, sender.ID, taskID)
	switch {
	case errors.Is(err, service.ErrAlreadyCompleted):
		return c.Respond(&tele.CallbackResponse{Text: "✅ أنجزت هذه المهمة من قبل", ShowAlert: true})
	case errors.Is(err, service.ErrTaskNotFound):
		return c.Respond(&tele.CallbackResponse{Text: "❌ المهمة لم تعد متاحة", ShowAlert: true})
	case err != nil:
		return c.Respond(&tele.CallbackResponse{Text: "❌ حدث خطأ في إكمال المهمة", ShowAlert: true})
	}

	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		return err
	}

	account, err := h.ledger.GetAccount(ctx, sender.ID)
	if err != nil {
		return c.Send(msgGenericError)
	}

	if err := c.Send(fmt.Sprintf(
		"✅ تم إكمال المهمة بنجاح!\n\n"+
			"🎁 المكافأة: %d نقطة\n"+
			"💎 رصيد النقاط الجديد: %d نقطة",
		reward, account.Points,
	)); err != nil {
		return err
	}
	return h.resetToMenu(ctx, c, sender.ID)
}
