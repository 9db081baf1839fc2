package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"study-assistant-bot/internal/model"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		points int64
		level  int
	}{
		{0, 1},
		{49, 1},
		{50, 2},
		{149, 2},
		{150, 3},
		{299, 3},
		{300, 4},
		{499, 4},
		{500, 5},
		{100000, 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, Level(tt.points), "points=%d", tt.points)
	}
}

// TestLevelMonotonicProperty verifies that more points never mean a lower
// level, and that levels stay within 1..5.
func TestLevelMonotonicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Int64Range(0, 1000000).Draw(t, "a")
		b := rapid.Int64Range(0, 1000000).Draw(t, "b")
		if a > b {
			a, b = b, a
		}

		la, lb := Level(a), Level(b)
		if la > lb {
			t.Fatalf("Level(%d)=%d > Level(%d)=%d", a, la, b, lb)
		}
		if la < 1 || lb > 5 {
			t.Fatalf("levels out of range: %d, %d", la, lb)
		}
	})
}

func TestVisibleAtLevel(t *testing.T) {
	// Level 1 sees only the beginner categories
	assert.True(t, visibleAtLevel(1, model.TaskCategoryChat))
	assert.True(t, visibleAtLevel(1, model.TaskCategoryActivity))
	assert.True(t, visibleAtLevel(1, model.TaskCategoryProfile))
	assert.False(t, visibleAtLevel(1, model.TaskCategoryReferral))
	assert.False(t, visibleAtLevel(1, model.TaskCategoryAchievement))
	assert.False(t, visibleAtLevel(1, model.TaskCategoryGeneral))

	// Mid levels see everything except achievements
	for _, level := range []int{2, 3} {
		assert.True(t, visibleAtLevel(level, model.TaskCategoryReferral), "level=%d", level)
		assert.True(t, visibleAtLevel(level, model.TaskCategoryGeneral), "level=%d", level)
		assert.False(t, visibleAtLevel(level, model.TaskCategoryAchievement), "level=%d", level)
	}

	// Top levels see everything
	for _, level := range []int{4, 5} {
		assert.True(t, visibleAtLevel(level, model.TaskCategoryAchievement), "level=%d", level)
	}
}
