package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms/fake"
)

func TestParseDecision(t *testing.T) {
	cases := []struct {
		in       string
		decision bool
		ok       bool
	}{
		{"y", true, true},
		{"Y", true, true},
		{" yes", true, true},
		{"\"y\"", true, true},
		{"sim", false, false},
		{"n", false, true},
		{"No.", false, true},
		{"", false, false},
		{"maybe", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			decision, ok := ParseDecision(tc.in)
			assert.Equal(t, tc.decision, decision)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestClassify(t *testing.T) {
	c := New(fake.NewFakeLLM([]string{"y", "<think>greeting</think>n", "perhaps"}))
	ctx := context.Background()

	rag, err := c.Classify(ctx, "What oil should be used for a lathe?")
	require.NoError(t, err)
	assert.True(t, rag)

	rag, err = c.Classify(ctx, "Hello")
	require.NoError(t, err)
	assert.False(t, rag)

	rag, err = c.Classify(ctx, "???")
	require.NoError(t, err)
	assert.False(t, rag)
}

func TestClassifyError(t *testing.T) {
	_, err := New(fake.NewFakeLLM(nil)).Classify(context.Background(), "x")
	assert.Error(t, err)
}
