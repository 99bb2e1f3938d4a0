package history

import (
	"fmt"
	"time"

	"github.com/wolfman30/crisis-companion/internal/emotion"
)

const (
	// EmotionCapacity bounds the per-session emotion window.
	EmotionCapacity = 20
	// TurnCapacity bounds the per-session conversation buffer.
	TurnCapacity = 50
)

// Sender identifies who authored a turn.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Turn is one chat message. Turns are never mutated after creation.
type Turn struct {
	ID         string        `json:"id"`
	Text       string        `json:"text"`
	Sender     Sender        `json:"sender"`
	Timestamp  time.Time     `json:"timestamp"`
	SessionID  string        `json:"session_id"`
	EmotionTag emotion.Label `json:"emotion_tag,omitempty"`
}

// Buffer holds the bounded emotion window and turn log for one session.
// It is not safe for concurrent use; the owning session serializes access.
type Buffer struct {
	emotionCap int
	turnCap    int
	emotions   []emotion.Reading
	turns      []Turn
}

// NewBuffer returns a buffer with the standard capacities.
func NewBuffer() *Buffer {
	return newBufferWithCapacity(EmotionCapacity, TurnCapacity)
}

func newBufferWithCapacity(emotionCap, turnCap int) *Buffer {
	if emotionCap <= 0 {
		emotionCap = EmotionCapacity
	}
	if turnCap <= 0 {
		turnCap = TurnCapacity
	}
	return &Buffer{
		emotionCap: emotionCap,
		turnCap:    turnCap,
		emotions:   make([]emotion.Reading, 0, emotionCap),
		turns:      make([]Turn, 0, turnCap),
	}
}

// AppendEmotion validates and stores a reading, evicting the oldest past
// capacity. Invalid readings never enter the window.
func (b *Buffer) AppendEmotion(r emotion.Reading) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("history: append emotion: %w", err)
	}
	b.emotions = append(b.emotions, r.Clone())
	if over := len(b.emotions) - b.emotionCap; over > 0 {
		b.emotions = append(b.emotions[:0], b.emotions[over:]...)
	}
	return nil
}

// AppendTurn stores a turn, evicting the oldest past capacity.
func (b *Buffer) AppendTurn(t Turn) {
	b.turns = append(b.turns, t)
	if over := len(b.turns) - b.turnCap; over > 0 {
		b.turns = append(b.turns[:0], b.turns[over:]...)
	}
}

// RecentEmotions returns up to n readings, oldest first.
func (b *Buffer) RecentEmotions(n int) []emotion.Reading {
	if n <= 0 || len(b.emotions) == 0 {
		return []emotion.Reading{}
	}
	if n > len(b.emotions) {
		n = len(b.emotions)
	}
	src := b.emotions[len(b.emotions)-n:]
	out := make([]emotion.Reading, len(src))
	for i, r := range src {
		out[i] = r.Clone()
	}
	return out
}

// RecentTurns returns up to n turns, oldest first.
func (b *Buffer) RecentTurns(n int) []Turn {
	if n <= 0 || len(b.turns) == 0 {
		return []Turn{}
	}
	if n > len(b.turns) {
		n = len(b.turns)
	}
	out := make([]Turn, n)
	copy(out, b.turns[len(b.turns)-n:])
	return out
}

// RecentUserTexts returns the text of up to n most recent user turns, oldest first.
func (b *Buffer) RecentUserTexts(n int) []string {
	if n <= 0 {
		return nil
	}
	var out []string
	for i := len(b.turns) - 1; i >= 0 && len(out) < n; i-- {
		if b.turns[i].Sender == SenderUser {
			out = append(out, b.turns[i].Text)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// EmotionCount reports how many readings are held.
func (b *Buffer) EmotionCount() int { return len(b.emotions) }

// TurnCount reports how many turns are held.
func (b *Buffer) TurnCount() int { return len(b.turns) }

// Reset discards both buffers.
func (b *Buffer) Reset() {
	b.emotions = b.emotions[:0]
	b.turns = b.turns[:0]
}
