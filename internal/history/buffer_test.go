package history

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/crisis-companion/internal/emotion"
)

func reading(conf float64) emotion.Reading {
	return emotion.Reading{
		Expressions: map[emotion.Label]float64{emotion.Neutral: 1},
		Dominant:    emotion.Neutral,
		Confidence:  conf,
		Timestamp:   time.Now(),
	}
}

func TestBufferEvictsOldestEmotion(t *testing.T) {
	b := NewBuffer()
	for i := 0; i < EmotionCapacity+1; i++ {
		require.NoError(t, b.AppendEmotion(reading(float64(i)/100)))
	}

	assert.Equal(t, EmotionCapacity, b.EmotionCount())
	all := b.RecentEmotions(100)
	require.Len(t, all, EmotionCapacity)
	assert.InDelta(t, 0.01, all[0].Confidence, 1e-9, "first reading evicted")
	assert.InDelta(t, 0.20, all[len(all)-1].Confidence, 1e-9)
}

func TestBufferEvictsOldestTurn(t *testing.T) {
	b := NewBuffer()
	for i := 0; i < TurnCapacity+1; i++ {
		b.AppendTurn(Turn{ID: fmt.Sprint(i), Sender: SenderUser})
	}

	assert.Equal(t, TurnCapacity, b.TurnCount())
	turns := b.RecentTurns(TurnCapacity)
	assert.Equal(t, "1", turns[0].ID)
	assert.Equal(t, fmt.Sprint(TurnCapacity), turns[len(turns)-1].ID)
}

func TestBufferRejectsInvalidReading(t *testing.T) {
	b := NewBuffer()
	err := b.AppendEmotion(reading(1.5))
	require.Error(t, err)
	assert.True(t, errors.Is(err, emotion.ErrValidation))
	assert.Zero(t, b.EmotionCount())
}

func TestBufferRecentReturnsOldestFirstAndFewerWhenShort(t *testing.T) {
	b := NewBuffer()
	for i := 0; i < 3; i++ {
		b.AppendTurn(Turn{ID: fmt.Sprint(i)})
	}
	recent := b.RecentTurns(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "1", recent[0].ID)
	assert.Equal(t, "2", recent[1].ID)

	assert.Len(t, b.RecentTurns(10), 3)
	assert.Empty(t, b.RecentTurns(0))
	assert.Empty(t, b.RecentEmotions(5))
}

func TestBufferRecentIsACopy(t *testing.T) {
	b := NewBuffer()
	require.NoError(t, b.AppendEmotion(reading(0.5)))
	got := b.RecentEmotions(1)
	got[0].Confidence = 0.9
	got[0].Expressions[emotion.Neutral] = 0

	again := b.RecentEmotions(1)
	assert.Equal(t, 0.5, again[0].Confidence)
	assert.Equal(t, 1.0, again[0].Expressions[emotion.Neutral])
}

func TestBufferRecentUserTexts(t *testing.T) {
	b := NewBuffer()
	b.AppendTurn(Turn{Text: "one", Sender: SenderUser})
	b.AppendTurn(Turn{Text: "reply", Sender: SenderAssistant})
	b.AppendTurn(Turn{Text: "two", Sender: SenderUser})
	b.AppendTurn(Turn{Text: "three", Sender: SenderUser})
	b.AppendTurn(Turn{Text: "four", Sender: SenderUser})

	assert.Equal(t, []string{"two", "three", "four"}, b.RecentUserTexts(3))
	assert.Nil(t, b.RecentUserTexts(0))
}

func TestBufferReset(t *testing.T) {
	b := newBufferWithCapacity(2, 2)
	require.NoError(t, b.AppendEmotion(reading(0.2)))
	b.AppendTurn(Turn{ID: "x"})
	b.Reset()
	assert.Zero(t, b.EmotionCount())
	assert.Zero(t, b.TurnCount())
}
