package media

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

const defaultDPI = 150

// OpenPDF rasterises the first page of a PDF as a still background.
func OpenPDF(path string, dpi int) (*Still, error) {
	if dpi <= 0 {
		dpi = defaultDPI
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("%s has no pages", path)
	}
	img, err := doc.ImageDPI(0, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", path, err)
	}
	return NewStill(img), nil
}
