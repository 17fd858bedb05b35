package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/tiff"

	"github.com/freeseed/exams-tw/constants"
)

// DetectFormat recognises JPEG, PNG, TIFF and GIF by their magic bytes.
func DetectFormat(b []byte) constants.ImageFormat {
	switch {
	case bytes.HasPrefix(b, []byte{0xFF, 0xD8}):
		return constants.ImageJPEG
	case bytes.HasPrefix(b, []byte("\x89PNG")):
		return constants.ImagePNG
	case bytes.HasPrefix(b, []byte("II*\x00")), bytes.HasPrefix(b, []byte("MM\x00*")):
		return constants.ImageTIFF
	case bytes.HasPrefix(b, []byte("GIF8")):
		return constants.ImageGIF
	}
	return constants.ImageUnknown
}

// Decode decodes b as the given format. Importing this package also
// registers every supported format with image.Decode.
func Decode(b []byte, f constants.ImageFormat) (image.Image, error) {
	r := bytes.NewReader(b)
	switch f {
	case constants.ImageJPEG:
		return jpeg.Decode(r)
	case constants.ImagePNG:
		return png.Decode(r)
	case constants.ImageTIFF:
		return tiff.Decode(r)
	case constants.ImageGIF:
		return gif.Decode(r)
	}
	return nil, fmt.Errorf("unsupported image format %q", f)
}

// Encode writes img in the given format; JPEG uses the given quality.
func Encode(w io.Writer, img image.Image, f constants.ImageFormat, quality int) error {
	switch f {
	case constants.ImageJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case constants.ImagePNG:
		return png.Encode(w, img)
	case constants.ImageTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case constants.ImageGIF:
		return gif.Encode(w, img, nil)
	}
	return fmt.Errorf("unsupported image format %q", f)
}
