// Package imaging normalises uploaded organization attachments.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// Defaults for stored attachments.
const (
	MaxDimension   = 1024
	ThumbDimension = 128
	JPEGQuality    = 85
	MaxUploadBytes = 10 << 20
)

// ErrTooLarge is returned when an upload exceeds the byte limit.
var ErrTooLarge = errors.New("attachment too large")

// ErrUnsupported is returned for anything other than JPEG or PNG.
var ErrUnsupported = errors.New("unsupported attachment format")

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Attachment is a normalised image ready for storage.
type Attachment struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Normalize reads at most limit bytes, checks the format by sniffing the
// content, fits the image into MaxDimension and re-encodes it as JPEG.
func Normalize(r io.Reader, limit int64) (*Attachment, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading attachment: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, limit)
	}
	return Resize(data, MaxDimension)
}

// Resize decodes data and re-encodes it as JPEG no larger than maxDim on either side.
func Resize(data []byte, maxDim int) (*Attachment, error) {
	if detected := http.DetectContentType(data); !allowedMIME[detected] {
		return nil, fmt.Errorf("%w: %s (only JPEG and PNG accepted)", ErrUnsupported, detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding attachment: %w", err)
	}
	img = fit(img, maxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &Attachment{Data: buf.Bytes(), MIME: "image/jpeg", Width: b.Dx(), Height: b.Dy()}, nil
}

// fit scales img down with Catmull-Rom so neither side exceeds maxDim.
func fit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
