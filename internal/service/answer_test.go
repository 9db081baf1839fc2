package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"study-assistant-bot/internal/model"
)

func accountFixture() *model.Account {
	return &model.Account{
		TelegramID: 12345,
		FullName:   "محمد عبدالله الفهد",
		Stage:      "الجامعة/التعليم العالي",
		Country:    "المملكة العربية السعودية",
	}
}

func TestMetaAnswer(t *testing.T) {
	fixed := "👋🏼 أنا بوت منهج Ai، تم تطويري وبرمجتي بواسطة مصعب فهد."

	tests := []struct {
		question string
		match    bool
	}{
		{"من سواك", true},
		{"من برمجك", true},
		{"من طورك", true},
		{"مصممك", true},
		{"  من سواك؟  ", true},
		{"أخبرني من برمجك بالضبط", true},
		{"ما هي عاصمة فرنسا؟", false},
		{"اشرح قانون نيوتن الثاني", false},
		{"", false},
	}

	for _, tt := range tests {
		answer, ok := MetaAnswer(tt.question)
		assert.Equal(t, tt.match, ok, "question=%q", tt.question)
		if tt.match {
			assert.Equal(t, fixed, answer)
		} else {
			assert.Empty(t, answer)
		}
	}
}

func TestBuildPromptCarriesCurriculumContext(t *testing.T) {
	svc := NewAnswerService(nil, nil, nil)
	account := accountFixture()

	prompt := svc.buildPrompt(account, "ما هي عاصمة فرنسا؟")

	assert.Contains(t, prompt, account.Country)
	assert.Contains(t, prompt, account.Stage)
	assert.Contains(t, prompt, account.FullName)
	assert.Contains(t, prompt, "ما هي عاصمة فرنسا؟")
}
