package research

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scouterrors "github.com/inkfield/scout/internal/errors"
)

func TestTargetCount(t *testing.T) {
	assert.Equal(t, 3, TargetCount(1))
	assert.Equal(t, 3, TargetCount(10))
	assert.Equal(t, 4, TargetCount(11))
	assert.Equal(t, 4, TargetCount(25))
	assert.Equal(t, 5, TargetCount(26))
	assert.Equal(t, 5, TargetCount(50))
}

func TestParseSubQuestions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "numbered list",
			content: "1. What is quantum computing?\n2. How do qubits work?\n3. What are current applications?",
			want:    []string{"What is quantum computing?", "How do qubits work?", "What are current applications?"},
		},
		{
			name:    "numbered with parens",
			content: "1) First question?\n2) Second question?",
			want:    []string{"First question?", "Second question?"},
		},
		{
			name:    "bullets",
			content: "- What is X?\n- What is Y?\n* What is Z?",
			want:    []string{"What is X?", "What is Y?", "What is Z?"},
		},
		{
			name:    "preamble before numbered list ignored",
			content: "Here are the sub-questions:\n1. What is A?\n2. What is B?",
			want:    []string{"What is A?", "What is B?"},
		},
		{
			name:    "markdown fences stripped",
			content: "```\n1. What is A?\n2. What is B?\n```",
			want:    []string{"What is A?", "What is B?"},
		},
		{
			name:    "bare question lines when no markers",
			content: "What is A?\nWhat is B?\nWhat is C?",
			want:    []string{"What is A?", "What is B?", "What is C?"},
		},
		{
			name:    "case-insensitive dedupe",
			content: "1. What is Go?\n2. WHAT IS GO?\n3. What is Rust?",
			want:    []string{"What is Go?", "What is Rust?"},
		},
		{
			name:    "empty items discarded",
			content: "1. \n2. What is A?\n3.  ",
			want:    []string{"What is A?"},
		},
		{
			name:    "quoted items unquoted",
			content: "1. \"What is A?\"\n2. \"What is B?\"",
			want:    []string{"What is A?", "What is B?"},
		},
		{
			name:    "empty content",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSubQuestions(tt.content))
		})
	}
}

func TestDecompose(t *testing.T) {
	t.Run("parses model reply", func(t *testing.T) {
		client := &scriptedLLM{
			decomposeReply: "1. What is quantum computing?\n2. How do qubits work?\n3. What are applications?",
		}
		d := NewDecomposer(client)

		subs, err := d.Decompose(context.Background(), "explain quantum computing", 3)
		require.NoError(t, err)
		assert.Len(t, subs, 3)
	})

	t.Run("truncates to target count", func(t *testing.T) {
		client := &scriptedLLM{
			decomposeReply: "1. A?\n2. B?\n3. C?\n4. D?\n5. E?",
		}
		d := NewDecomposer(client)

		subs, err := d.Decompose(context.Background(), "question", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"A?", "B?", "C?"}, subs)
	})

	t.Run("falls back to question when too few items", func(t *testing.T) {
		client := &scriptedLLM{decomposeReply: "1. Only one sub-question?"}
		d := NewDecomposer(client)

		subs, err := d.Decompose(context.Background(), "the original question", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"the original question"}, subs)
	})

	t.Run("falls back on unparseable prose", func(t *testing.T) {
		client := &scriptedLLM{decomposeReply: "I cannot break this down into sub-questions."}
		d := NewDecomposer(client)

		subs, err := d.Decompose(context.Background(), "the question", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"the question"}, subs)
	})

	t.Run("model failure returns decomposition error", func(t *testing.T) {
		client := &scriptedLLM{decomposeErr: errors.New("connection refused")}
		d := NewDecomposer(client)

		_, err := d.Decompose(context.Background(), "question", 3)
		require.Error(t, err)
		assert.Equal(t, scouterrors.ErrCodeDecompositionFailed, scouterrors.GetCode(err))
	})
}
