package handler

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"study-assistant-bot/internal/model"
)

// Main menu button labels.
const (
	btnSearch       = "🔍 بحث عام"
	btnStats        = "📊 إحصائياتي"
	btnActivationID = "🔑 معرف التفعيل"
	btnPoints       = "💎 نقاطي"
	btnConvert      = "📤 تحويل نقاط"
	btnTransfer     = "🔀 تحويل ريال"
	btnBuyPremium   = "🛒 شراء بريميم"
	btnReferral     = "👥 نظام الإحالة"
	btnTasks        = "📋 المهام"
	btnWatchAd      = "🎬 مشاهدة إعلان"
	btnSupport      = "📞 اتصل بالدعم"
	btnRefresh      = "🔄 تحديث القائمة"
	btnAdminMode    = "🛠️ الدخول لوضع المدير"
	btnBack         = "🔙 العودة للقائمة الرئيسية"
)

// Admin menu button labels.
const (
	btnAdminAllUsers     = "👥 عرض كل المستخدمين"
	btnAdminPremiumUsers = "✨ عرض مشتركي بريميم"
	btnAdminFreeUsers    = "🚫 عرض غير المشتركين"
	btnAdminPointsStats  = "💎 إحصائيات النقاط"
	btnAdminAddTask      = "➕ إضافة مهمة جديدة"
	btnAdminListTasks    = "📋 عرض المهام الحالية"
	btnAdminActivate     = "🔑 تفعيل بريميم لرمز"
	btnAdminDeactivate   = "🚫 إلغاء بريميم لرمز"
	btnAdminGift         = "🎁 تفعيل بريميم هدية"
	btnAdminAddManager   = "🛠️ تعيين مدير جديد"
	btnAdminBroadcast    = "📣 إرسال إشعار للكل"
	btnAdminChangePrice  = "💵 تغيير سعر البوت"
	btnAdminSupport      = "📞 إدارة الدعم"
	btnAdminGrantPoints  = "🎁 منح نقاط لمستخدم"
	btnAdminGrantMoney   = "💸 منح ريال لمستخدم"
	btnAdminContactMail  = "📧 تعديل بريد التواصل"
	btnAdminContactInsta = "📷 تعديل انستغرام التواصل"
)

// Callback data prefixes.
const (
	cbAdStart      = "ad_start"
	cbAdCheck      = "ad_check"
	cbAdConfirm    = "ad_confirm"
	cbSkipReferral = "skip_referral"
	cbTaskDone     = "task_done_"
	cbSupportReply = "support_reply_"
)

func mainMenuMarkup(manager bool) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}

	rows := []tele.Row{
		markup.Row(markup.Text(btnSearch)),
		markup.Row(markup.Text(btnStats), markup.Text(btnActivationID)),
		markup.Row(markup.Text(btnPoints), markup.Text(btnConvert)),
		markup.Row(markup.Text(btnTransfer), markup.Text(btnBuyPremium)),
		markup.Row(markup.Text(btnReferral), markup.Text(btnTasks)),
		markup.Row(markup.Text(btnWatchAd), markup.Text(btnSupport)),
		markup.Row(markup.Text(btnRefresh)),
	}
	if manager {
		rows = append(rows, markup.Row(markup.Text(btnAdminMode)))
	}

	markup.Reply(rows...)
	return markup
}

func adminMenuMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	markup.Reply(
		markup.Row(markup.Text(btnAdminAllUsers), markup.Text(btnAdminPremiumUsers)),
		markup.Row(markup.Text(btnAdminFreeUsers), markup.Text(btnAdminPointsStats)),
		markup.Row(markup.Text(btnAdminAddTask), markup.Text(btnAdminListTasks)),
		markup.Row(markup.Text(btnAdminActivate), markup.Text(btnAdminDeactivate)),
		markup.Row(markup.Text(btnAdminGift), markup.Text(btnAdminAddManager)),
		markup.Row(markup.Text(btnAdminBroadcast), markup.Text(btnAdminChangePrice)),
		markup.Row(markup.Text(btnAdminSupport)),
		markup.Row(markup.Text(btnAdminGrantPoints), markup.Text(btnAdminGrantMoney)),
		markup.Row(markup.Text(btnAdminContactMail), markup.Text(btnAdminContactInsta)),
		markup.Row(markup.Text(btnBack)),
	)
	return markup
}

func stageMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	rows := make([]tele.Row, 0, len(model.EducationStages))
	for _, stage := range model.EducationStages {
		rows = append(rows, markup.Row(markup.Text(stage)))
	}
	markup.Reply(rows...)
	return markup
}

func countryMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	var rows []tele.Row
	for i := 0; i < len(model.ArabCountries); i += 2 {
		row := []tele.Btn{markup.Text(model.ArabCountries[i])}
		if i+1 < len(model.ArabCountries) {
			row = append(row, markup.Text(model.ArabCountries[i+1]))
		}
		rows = append(rows, markup.Row(row...))
	}
	markup.Reply(rows...)
	return markup
}

func backMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	markup.Reply(markup.Row(markup.Text(btnBack)))
	return markup
}

func skipReferralMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("⏭️ تخطي (بدون رمز)", cbSkipReferral)))
	return markup
}

func gateMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("🔗 انقر هنا لتفعيل زر المتابعة", cbAdStart)))
	return markup
}

func ritualMarkup(adLink string, seconds int) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.URL("🌐 رابط الإعلان (اضغط هنا)", adLink)),
		markup.Row(markup.Data(fmt.Sprintf("✅ المتابعة بعد %d ثواني", seconds), cbAdCheck)),
	)
	return markup
}

func watchAdMarkup(adLink string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.URL("🌐 رابط الإعلان (اضغط هنا)", adLink)),
		markup.Row(markup.Data("✅ تأكيد المشاهدة", cbAdConfirm)),
	)
	return markup
}

func tasksMarkup(tasks []*model.Task) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, markup.Row(
			markup.URL(fmt.Sprintf("📋 %s", t.Description), t.Link),
			markup.Data(fmt.Sprintf("✅ %d نقطة", t.Points), fmt.Sprintf("%s%d", cbTaskDone, t.ID)),
		))
	}
	markup.Inline(rows...)
	return markup
}
