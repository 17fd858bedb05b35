package pdfdoc

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PdfcpuImages extracts every image resource with pdfcpu. JPEG streams come
// back as stored; other encodings are rendered to PNG or TIFF by pdfcpu.
func PdfcpuImages(rs io.ReadSeeker) (map[ImageKey][]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pages, err := api.ExtractImagesRaw(rs, nil, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu extract images: %w", err)
	}
	out := map[ImageKey][]byte{}
	for _, byObj := range pages {
		for _, img := range byObj {
			b, err := io.ReadAll(img)
			if err != nil {
				return out, fmt.Errorf("read image %s on page %d: %w", img.Name, img.PageNr, err)
			}
			out[ImageKey{Page: img.PageNr, Name: img.Name}] = b
		}
	}
	return out, nil
}
