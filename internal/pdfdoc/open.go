package pdfdoc

import (
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
)

const (
	defaultWidth  = 612.0
	defaultHeight = 792.0
)

// ImageKey identifies an image resource on a page.
type ImageKey struct {
	Page int
	Name string
}

// ImageSource returns the encoded bytes of every image resource in a PDF.
type ImageSource func(rs io.ReadSeeker) (map[ImageKey][]byte, error)

// Options tune Open.
type Options struct {
	// Images supplies image bytes; nil means pdfcpu. Placements with no
	// bytes are dropped with a warning.
	Images ImageSource
	// SkipImages leaves Page.Images empty.
	SkipImages bool
}

// Open parses the PDF at path with default options.
func Open(path string) (*Document, error) {
	return OpenWith(path, Options{})
}

// OpenWith parses the PDF at path.
func OpenWith(path string, opts Options) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	doc, err := Read(f, st.Size(), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// Reader is what Read needs from its input.
type Reader interface {
	io.ReaderAt
	io.ReadSeeker
}

// Read parses a PDF of the given size.
func Read(r Reader, size int64, opts Options) (doc *Document, err error) {
	defer func() {
		if p := recover(); p != nil {
			doc, err = nil, fmt.Errorf("malformed pdf: %v", p)
		}
	}()

	pr, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	doc = &Document{}
	n := pr.NumPage()
	for i := 1; i <= n; i++ {
		page := pr.Page(i)
		if page.V.IsNull() {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("page %d: missing", i))
			continue
		}
		pg, perr := readPage(page, i, !opts.SkipImages)
		if perr != nil {
			doc.Warnings = append(doc.Warnings, perr.Error())
		}
		doc.Pages = append(doc.Pages, pg)
	}

	if opts.SkipImages || doc.ImageCount() == 0 {
		return doc, nil
	}
	source := opts.Images
	if source == nil {
		source = PdfcpuImages
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := source(r)
	if err != nil {
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("image bytes: %v", err))
	}
	attachImageData(doc, data)
	return doc, nil
}

// readPage never fails outright: a page whose content cannot be interpreted
// is returned with what was gathered so far plus an error.
func readPage(page pdf.Page, number int, withImages bool) (pg Page, err error) {
	pg = Page{Number: number, Width: defaultWidth, Height: defaultHeight}
	var originX, originY float64
	if box := findInherited(page.V, "MediaBox"); box.Kind() == pdf.Array && box.Len() == 4 {
		originX, originY = box.Index(0).Float64(), box.Index(1).Float64()
		pg.Width = box.Index(2).Float64() - originX
		pg.Height = box.Index(3).Float64() - originY
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("page %d: %v", number, p)
		}
	}()

	content := page.Content()
	pg.Words = groupWords(content.Text, originX, originY+pg.Height)
	pg.Text = linesText(pg.Words)
	if withImages {
		pg.Images = placements(page)
	}
	return pg, nil
}

// findInherited walks the page tree upwards for an inheritable attribute.
func findInherited(v pdf.Value, key string) pdf.Value {
	for depth := 0; v.Kind() == pdf.Dict && depth < 32; depth++ {
		if x := v.Key(key); x.Kind() != pdf.Null {
			return x
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}

func attachImageData(doc *Document, data map[ImageKey][]byte) {
	for pi := range doc.Pages {
		p := &doc.Pages[pi]
		kept := p.Images[:0]
		for _, im := range p.Images {
			b, ok := data[ImageKey{Page: p.Number, Name: im.Name}]
			if !ok || len(b) == 0 {
				doc.Warnings = append(doc.Warnings, fmt.Sprintf("page %d: no data for image %s", p.Number, im.Name))
				continue
			}
			im.Data = b
			kept = append(kept, im)
		}
		p.Images = kept
	}
}
