package common

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUID(t *testing.T) {
	id := GenerateUUID("")
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, GenerateUUID(""))

	prefixed := GenerateUUID("test")
	assert.True(t, strings.HasPrefix(prefixed, "test_"))
	assert.NotContains(t, prefixed, "-")
}

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	require.True(t, strings.HasPrefix(id, "run_"))
	_, err := uuid.Parse(strings.TrimPrefix(id, "run_"))
	assert.NoError(t, err)
	assert.NotEqual(t, id, NewRunID())
}

func TestNewEvalID(t *testing.T) {
	run := NewRunID()
	a := NewEvalID(run, "price")
	assert.True(t, strings.HasPrefix(a, "eval_"))
	assert.Len(t, a, len("eval_")+12)
	assert.Equal(t, a, NewEvalID(run, "price"))
	assert.NotEqual(t, a, NewEvalID(run, "margin"))
	assert.NotEqual(t, a, NewEvalID(NewRunID(), "price"))

	// a malformed run id still yields a stable id
	assert.Equal(t, NewEvalID("bogus", "price"), NewEvalID("bogus", "price"))
}

func BenchmarkNewEvalID(b *testing.B) {
	run := NewRunID()
	for i := 0; i < b.N; i++ {
		NewEvalID(run, "price")
	}
}
