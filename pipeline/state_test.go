package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_AppendOnly(t *testing.T) {
	st := NewState()

	assert.NoError(t, st.Set("research_findings", "findings"))
	assert.NoError(t, st.Set("draft_report", "report"))

	err := st.Set("research_findings", "overwrite attempt")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateOutputKey))

	// The original value survives the failed overwrite
	v, ok := st.Get("research_findings")
	assert.True(t, ok)
	assert.Equal(t, "findings", v)
}

func TestState_KeysPreserveWriteOrder(t *testing.T) {
	st := NewState()
	for _, k := range []string{"c", "a", "b"} {
		if err := st.Set(k, k); err != nil {
			t.Fatalf("Set(%q) failed: %v", k, err)
		}
	}

	assert.Equal(t, []string{"c", "a", "b"}, st.Keys())
	assert.Equal(t, 3, st.Len())
}

func TestState_Snapshot(t *testing.T) {
	st := NewState()
	_ = st.Set("k", "v")

	snap := st.Snapshot()
	snap["k"] = "mutated"
	snap["extra"] = "x"

	v, _ := st.Get("k")
	assert.Equal(t, "v", v)
	_, ok := st.Get("extra")
	assert.False(t, ok)
}
