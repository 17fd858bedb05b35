package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/pdfdoc"
)

// JPEGQuality is used for every JPEG the package writes.
const JPEGQuality = 90

// Saved is an image written to disk together with where it sat on its page.
type Saved struct {
	Filename string
	Page     int
	X0, Y0   float64
	X1, Y1   float64
	// Top is measured from the top edge of the page.
	Top float64
}

// Writer saves extracted images into one folder.
type Writer struct {
	dir    string
	logger *slog.Logger
}

func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, logger: logger}
}

func (w *Writer) write(name string, data []byte) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.dir, name), data, 0o644)
}

// Compose stacks image strips that belong together. Pieces sharing an
// exact x0 form one group (first-seen order); each group is ordered top
// first and pasted downwards on an RGB canvas. The group number in the
// file name counts skipped groups too.
func (w *Writer) Compose(pdfBase string, page pdfdoc.Page) ([]Saved, error) {
	type group struct {
		x0     float64
		pieces []pdfdoc.Image
	}
	var groups []*group
	byX := map[float64]*group{}
	for _, im := range page.Images {
		g, ok := byX[im.X0]
		if !ok {
			g = &group{x0: im.X0}
			byX[im.X0] = g
			groups = append(groups, g)
		}
		g.pieces = append(g.pieces, im)
	}

	var out []Saved
	for gi, g := range groups {
		sort.SliceStable(g.pieces, func(i, j int) bool { return g.pieces[i].Y0 > g.pieces[j].Y0 })
		name := fmt.Sprintf("%s_page%d_img%d", pdfBase, page.Number, gi+1)

		format := DetectFormat(g.pieces[0].Data)
		if format == constants.ImageUnknown {
			w.logger.Warn("imaging.compose.unsupported", "image", name, "pieces", len(g.pieces))
			continue
		}
		canvas, err := stack(g.pieces)
		if err != nil {
			w.logger.Warn("imaging.compose.decode_failed", "image", name, "error", err)
			continue
		}
		var buf bytes.Buffer
		if err := Encode(&buf, canvas, format, JPEGQuality); err != nil {
			return out, fmt.Errorf("encode %s: %w", name, err)
		}
		filename := name + "." + format.Ext()
		if err := w.write(filename, buf.Bytes()); err != nil {
			return out, fmt.Errorf("write %s: %w", filename, err)
		}

		s := Saved{Filename: filename, Page: page.Number, Top: g.pieces[0].Top(page.Height)}
		s.X0, s.Y0, s.X1, s.Y1 = union(g.pieces)
		out = append(out, s)
		w.logger.Debug("imaging.compose.ok", "image", filename, "pieces", len(g.pieces))
	}
	return out, nil
}

// SaveEach writes every image on the page on its own, keeping the detected
// format. Anything that is not already RGB or grayscale is flattened to RGB.
func (w *Writer) SaveEach(pdfBase string, page pdfdoc.Page) ([]Saved, error) {
	var out []Saved
	for i, im := range page.Images {
		base := fmt.Sprintf("%s_page%d_img%d", pdfBase, page.Number, i+1)
		format := DetectFormat(im.Data)
		if format == constants.ImageUnknown {
			w.logger.Warn("imaging.save.unsupported", "image", base)
			continue
		}
		img, err := Decode(im.Data, format)
		if err != nil {
			w.logger.Warn("imaging.save.decode_failed", "image", base, "error", err)
			continue
		}
		switch img.(type) {
		case *image.Gray, *image.RGBA, *image.YCbCr:
		default:
			img = toRGB(img)
		}
		var buf bytes.Buffer
		if err := Encode(&buf, img, format, JPEGQuality); err != nil {
			return out, fmt.Errorf("encode %s: %w", base, err)
		}
		name := base + "." + format.Ext()
		if err := w.write(name, buf.Bytes()); err != nil {
			return out, fmt.Errorf("write %s: %w", name, err)
		}
		out = append(out, Saved{
			Filename: name,
			Page:     page.Number,
			X0:       im.X0, Y0: im.Y0, X1: im.X1, Y1: im.Y1,
			Top: im.Top(page.Height),
		})
	}
	return out, nil
}

// toRGB drops the alpha channel and keeps each pixel's stored colour, so
// fully transparent pixels keep whatever RGB they carried.
func toRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}

// stack decodes every piece by its own magic bytes and pastes them top to
// bottom on a black canvas as wide as the widest piece.
func stack(pieces []pdfdoc.Image) (image.Image, error) {
	decoded := make([]image.Image, 0, len(pieces))
	width, height := 0, 0
	for _, p := range pieces {
		img, _, err := image.Decode(bytes.NewReader(p.Data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		b := img.Bounds()
		if b.Dx() > width {
			width = b.Dx()
		}
		height += b.Dy()
		decoded = append(decoded, img)
	}
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	y := 0
	for _, img := range decoded {
		b := img.Bounds()
		draw.Draw(canvas, image.Rect(0, y, b.Dx(), y+b.Dy()), img, b.Min, draw.Src)
		y += b.Dy()
	}
	return canvas, nil
}

func union(pieces []pdfdoc.Image) (x0, y0, x1, y1 float64) {
	x0, y0 = math.Inf(1), math.Inf(1)
	x1, y1 = math.Inf(-1), math.Inf(-1)
	for _, p := range pieces {
		x0, y0 = math.Min(x0, p.X0), math.Min(y0, p.Y0)
		x1, y1 = math.Max(x1, p.X1), math.Max(y1, p.Y1)
	}
	return
}
