// Package pdfdoc reads the parts of an exam PDF the layout heuristics need:
// positioned words, per-page text and placed raster images.
package pdfdoc

import "strings"

// Word is a run of glyphs on one baseline, in top-left page coordinates.
type Word struct {
	Text   string
	X0     float64
	X1     float64
	Top    float64
	Bottom float64
}

// Image is one painted image XObject. The box is in PDF user space
// (origin bottom-left), as painted through the CTM.
type Image struct {
	Name string
	X0   float64
	Y0   float64
	X1   float64
	Y1   float64
	Data []byte
}

// Top is the distance from the top edge of a page of the given height.
func (im Image) Top(pageHeight float64) float64 {
	return pageHeight - im.Y1
}

// Page is one page of a Document. Number is 1-based.
type Page struct {
	Number int
	Width  float64
	Height float64
	Words  []Word
	Text   string
	Images []Image
}

// Document is a parsed PDF.
type Document struct {
	Path     string
	Pages    []Page
	Warnings []string
}

// Text joins the page texts with newlines.
func (d *Document) Text() string {
	parts := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\n")
}

// ImageCount is the number of placed images across pages.
func (d *Document) ImageCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Images)
	}
	return n
}
