package pdftext

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	name   string
	args   []string
	stdout string
	stderr string
	err    error
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.name, s.args = name, args
	return []byte(s.stdout), []byte(s.stderr), s.err
}

func TestExtract(t *testing.T) {
	r := &stubRunner{stdout: "題號 1 2  \n答案 Ａ Ｂ\f題號 3\n答案 Ｃ\n\f"}
	x := NewExtractor(Config{}, r, nil)

	res, err := x.Extract(context.Background(), "bank/x_A.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdftotext", r.name)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-eol", "unix", "bank/x_A.pdf", "-"}, r.args)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "題號 1 2\n答案 Ａ Ｂ\n題號 3\n答案 Ｃ", res.Text)
}

func TestExtractError(t *testing.T) {
	r := &stubRunner{stderr: "Syntax Error: Couldn't find trailer dictionary", err: errors.New("exit status 1")}
	x := NewExtractor(Config{Pdftotext: "/usr/bin/pdftotext"}, r, nil)

	_, err := x.Extract(context.Background(), "broken.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailer dictionary")
	assert.Equal(t, "/usr/bin/pdftotext", r.name)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a\nb", Normalize("a \r\nb\n\n"))
	assert.Equal(t, "", Normalize("\f\n"))
}
