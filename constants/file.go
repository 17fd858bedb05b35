package constants

import "strings"

// Suffixes appended to "{exam}_{category}_{session}" for downloaded papers.
const (
	QuestionSuffix = "_Q.pdf"
	AnswerSuffix   = "_A.pdf"
)

// ImageFormat is a raster format recognised from magic bytes.
type ImageFormat string

const (
	ImageJPEG    ImageFormat = "jpeg"
	ImagePNG     ImageFormat = "png"
	ImageTIFF    ImageFormat = "tiff"
	ImageGIF     ImageFormat = "gif"
	ImageUnknown ImageFormat = ""
)

// Ext returns the file extension written for the format.
func (f ImageFormat) Ext() string {
	return string(f)
}

// JSONExt is the extension of exam record files.
const JSONExt = "json"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
