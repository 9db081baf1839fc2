package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"study-assistant-bot/internal/ai"
	"study-assistant-bot/internal/model"
	"study-assistant-bot/internal/repository"
)

// metaPhrases are questions about the bot's origin. They are answered with a
// fixed reply, bypass the collaborator and do not advance any counter.
var metaPhrases = []string{"من سواك", "من برمجك", "من طورك", "مصممك"}

const metaAnswer = "👋🏼 أنا بوت منهج Ai، تم تطويري وبرمجتي بواسطة مصعب فهد."

// MetaAnswer returns the fixed reply for origin questions, if the text
// contains one of the recognized phrases.
func MetaAnswer(question string) (string, bool) {
	lowered := strings.ToLower(strings.TrimSpace(question))
	for _, phrase := range metaPhrases {
		if strings.Contains(lowered, phrase) {
			return metaAnswer, true
		}
	}
	return "", false
}

// AnswerService runs the curriculum question path: log the attempt, advance
// the lifetime and checkpoint counters, then ask the collaborator.
type AnswerService struct {
	accountRepo  *repository.AccountRepository
	questionRepo *repository.QuestionRepository
	answerer     ai.Answerer
}

// NewAnswerService creates a new AnswerService instance.
func NewAnswerService(
	accountRepo *repository.AccountRepository,
	questionRepo *repository.QuestionRepository,
	answerer ai.Answerer,
) *AnswerService {
	return &AnswerService{
		accountRepo:  accountRepo,
		questionRepo: questionRepo,
		answerer:     answerer,
	}
}

// Answer processes a gated question for the account. The question is logged
// and the counters advance before the collaborator is called, so a failed
// call still counts toward the next checkpoint.
func (s *AnswerService) Answer(ctx context.Context, account *model.Account, question string) (string, error) {
	if _, err := s.questionRepo.Log(ctx, account.TelegramID, question, model.QuestionCategoryGeneral); err != nil {
		log.Error().Err(err).Int64("account_id", account.TelegramID).Msg("Failed to log question")
	}
	if err := s.accountRepo.RecordAnswer(ctx, account.TelegramID); err != nil {
		log.Error().Err(err).Int64("account_id", account.TelegramID).Msg("Failed to record answer counters")
	}

	return s.answerer.Answer(ctx, s.buildPrompt(account, question))
}

// buildPrompt frames the question with the student's curriculum context.
func (s *AnswerService) buildPrompt(account *model.Account, question string) string {
	return fmt.Sprintf(
		"أنت معلم خبير في منهج %s للمرحلة %s. "+
			"اسم الطالب هو %s. "+
			"أنت تعمل ضمن بوت تعليمي على تيليجرام ومهمتك مساعدة الطلاب تعليمياً. "+
			"أجب على استفسارات الطلاب بأعلى دقة وموثوقية منهجية، "+
			"مع التركيز على المنهج الدراسي لدولة %s والمرحلة %s. "+
			"أجب على السؤال التالي بإجابة تعليمية منهجية دقيقة:\n\nالسؤال: %s",
		account.Country, account.Stage,
		account.FullName,
		account.Country, account.Stage,
		question,
	)
}

// LogBlocked appends an ad-blocked attempt to the question log. Blocked
// attempts do not advance the lifetime or checkpoint counters; the question
// is re-asked after the ritual. Best-effort, a storage failure is logged.
func (s *AnswerService) LogBlocked(ctx context.Context, accountID int64, question string) {
	if _, err := s.questionRepo.Log(ctx, accountID, question, model.QuestionCategoryBlocked); err != nil {
		log.Error().Err(err).Int64("account_id", accountID).Msg("Failed to log blocked question")
	}
}

// RecentQuestions retrieves an account's latest question log entries.
func (s *AnswerService) RecentQuestions(ctx context.Context, accountID int64, limit int) ([]*model.Question, error) {
	return s.questionRepo.RecentByAccount(ctx, accountID, limit)
}
