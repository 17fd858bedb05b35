package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want Layout
		ok   bool
	}{
		{"numbered-dot", LayoutNumberedDot, true},
		{" Type05 ", LayoutPUASpaced, true},
		{"type02", LayoutPUAInline, true},
		{"inline", LayoutPUAInline, true},
		{"", "", false},
		{"columns", "", false},
	}
	for _, tt := range tests {
		got, ok := Canonicalize(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusRunning.Terminal())
	assert.True(t, JobStatusSkipped.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
	assert.False(t, JobStatusQueued.Terminal())

	closed := 0
	for _, s := range JobStatuses() {
		if s.Terminal() {
			closed++
		}
	}
	assert.Equal(t, 4, closed)
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, "pdf", NormalizeExt(".PDF"))
	assert.Equal(t, "jpeg", ImageJPEG.Ext())
}
