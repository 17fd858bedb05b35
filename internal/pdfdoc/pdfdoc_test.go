package pdfdoc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF assembles a classic-xref PDF from object bodies numbered from 1.
func buildPDF(objs []string) []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

func stream(dict, data string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

func samplePDF() []byte {
	widths := strings.TrimSpace(strings.Repeat("500 ", 95))
	content := "BT /F1 12 Tf 72 700 Td (1. Apple) Tj ET\n" +
		"BT /F1 12 Tf 72 650 Td (2. Pear) Tj ET\n" +
		"q 100 0 0 50 72 500 cm /Im0 Do Q\n" +
		"q 2 0 0 2 0 0 cm q 10 0 0 10 5 5 cm /Im1 Do Q Q"
	return buildPDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 595 842] >>",
		"<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 4 0 R >> /XObject << /Im0 6 0 R /Im1 6 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>",
		stream("", content),
		stream("/Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8", "A"),
	})
}

func fakeImages(rs io.ReadSeeker) (map[ImageKey][]byte, error) {
	return map[ImageKey][]byte{{Page: 1, Name: "Im0"}: []byte("jpeg-bytes")}, nil
}

func TestOpenSyntheticPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.pdf")
	require.NoError(t, os.WriteFile(path, samplePDF(), 0o644))

	doc, err := OpenWith(path, Options{Images: fakeImages})
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)

	p := doc.Pages[0]
	assert.Equal(t, 1, p.Number)
	assert.InDelta(t, 595, p.Width, 0.001)
	assert.InDelta(t, 842, p.Height, 0.001)
	assert.Equal(t, "1. Apple\n2. Pear", p.Text)
	assert.Equal(t, p.Text, doc.Text())

	require.Len(t, p.Words, 4)
	assert.Equal(t, "1.", p.Words[0].Text)
	assert.InDelta(t, 72, p.Words[0].X0, 0.001)
	assert.InDelta(t, 84, p.Words[0].X1, 0.001)
	assert.InDelta(t, 842-712, p.Words[0].Top, 0.001)
	assert.Equal(t, "Apple", p.Words[1].Text)
	assert.InDelta(t, 90, p.Words[1].X0, 0.001)

	// Im1 has no bytes from the image source and is dropped with a warning
	require.Len(t, p.Images, 1)
	im := p.Images[0]
	assert.Equal(t, "Im0", im.Name)
	assert.Equal(t, []byte("jpeg-bytes"), im.Data)
	assert.InDelta(t, 72, im.X0, 0.001)
	assert.InDelta(t, 500, im.Y0, 0.001)
	assert.InDelta(t, 172, im.X1, 0.001)
	assert.InDelta(t, 550, im.Y1, 0.001)
	assert.InDelta(t, 842-550, im.Top(p.Height), 0.001)
	require.Len(t, doc.Warnings, 1)
	assert.Contains(t, doc.Warnings[0], "Im1")
}

func TestNestedTransformPlacement(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.pdf")
	require.NoError(t, os.WriteFile(path, samplePDF(), 0o644))

	all := func(io.ReadSeeker) (map[ImageKey][]byte, error) {
		return map[ImageKey][]byte{{1, "Im0"}: {1}, {1, "Im1"}: {2}}, nil
	}
	doc, err := OpenWith(path, Options{Images: all})
	require.NoError(t, err)
	require.Len(t, doc.Pages[0].Images, 2)
	im := doc.Pages[0].Images[1]
	assert.InDelta(t, 10, im.X0, 0.001)
	assert.InDelta(t, 10, im.Y0, 0.001)
	assert.InDelta(t, 30, im.X1, 0.001)
	assert.InDelta(t, 30, im.Y1, 0.001)
}

func TestSkipImages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.pdf")
	require.NoError(t, os.WriteFile(path, samplePDF(), 0o644))
	called := false
	doc, err := OpenWith(path, Options{SkipImages: true, Images: func(io.ReadSeeker) (map[ImageKey][]byte, error) {
		called = true
		return nil, nil
	}})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Empty(t, doc.Pages[0].Images)
	assert.Equal(t, 0, doc.ImageCount())
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("<html>not a pdf</html>"), 0o644))
	_, err := Open(path)
	require.Error(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}

func TestGroupWordsCJKWithoutMetrics(t *testing.T) {
	glyphs := []pdf.Text{
		{FontSize: 10, X: 50, Y: 100, S: "下"},
		{FontSize: 10, X: 60, Y: 100, S: "列"},
		{FontSize: 10, X: 70, Y: 100, S: " "},
		{FontSize: 10, X: 80, Y: 100, S: "1"},
		{FontSize: 10, X: 100, Y: 100, S: "2"},
		{FontSize: 10, X: 50, Y: 80, S: "甲"},
	}
	words := groupWords(glyphs, 0, 200)
	require.Len(t, words, 4)
	assert.Equal(t, "下列", words[0].Text)
	assert.InDelta(t, 70, words[0].X1, 0.001)
	assert.Equal(t, "1", words[1].Text)
	assert.Equal(t, "2", words[2].Text)
	assert.Equal(t, "甲", words[3].Text)
	assert.InDelta(t, 110, words[3].Top, 0.001)
	assert.Equal(t, "下列 1 2\n甲", linesText(words))
}

func TestMatrix(t *testing.T) {
	m := matrix{2, 0, 0, 3, 10, 20}
	x0, y0, x1, y1 := m.unitBox()
	assert.Equal(t, [4]float64{10, 20, 12, 23}, [4]float64{x0, y0, x1, y1})

	rot := matrix{0, 1, -1, 0, 0, 0} // 90 degrees
	x0, y0, x1, y1 = rot.unitBox()
	assert.Equal(t, [4]float64{-1, 0, 0, 1}, [4]float64{x0, y0, x1, y1})
	assert.Equal(t, identity, identity.mul(identity))
}
