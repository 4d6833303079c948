package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderInstruction_Substitution(t *testing.T) {
	st := NewState()
	_ = st.Set("research_findings", "three papers on robotics")

	out, err := RenderInstruction("Write a report based on:\n{research_findings}\n", st)
	assert.NoError(t, err)
	assert.Equal(t, "Write a report based on:\nthree papers on robotics\n", out)
}

func TestRenderInstruction_MultiplePlaceholders(t *testing.T) {
	st := NewState()
	_ = st.Set("a", "1")
	_ = st.Set("b", "2")

	out, err := RenderInstruction("{a} and {b} and {a}", st)
	assert.NoError(t, err)
	assert.Equal(t, "1 and 2 and 1", out)
}

func TestRenderInstruction_UnresolvedReference(t *testing.T) {
	st := NewState()

	_, err := RenderInstruction("Review this: {draft_report}", st)
	if err == nil {
		t.Fatal("expected unresolved reference error")
	}

	var unresolved *UnresolvedRefError
	assert.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "draft_report", unresolved.Key)
}

func TestRenderInstruction_NoPlaceholders(t *testing.T) {
	st := NewState()
	out, err := RenderInstruction("plain instruction", st)
	assert.NoError(t, err)
	assert.Equal(t, "plain instruction", out)
}
