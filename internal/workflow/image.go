package workflow

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/kamilpajak/leafguard/internal/predict"
	"github.com/nfnt/resize"
)

// previewMaxSide bounds the longer edge of preview thumbnails, in pixels.
const previewMaxSide = 480

// Image is a file selected for analysis
type Image struct {
	Name      string
	MediaType string
	Data      []byte
	// Preview is a data: URL for display only. Filled on selection.
	Preview string
}

func (img Image) payload() predict.Image {
	return predict.Image{Name: img.Name, MediaType: img.MediaType, Data: img.Data}
}

// preview encodes img as a data: URL. Large JPEG, PNG and GIF images are
// downscaled first; anything that cannot be decoded is embedded as-is.
func preview(img Image) string {
	data, mediaType := img.Data, img.MediaType
	if thumb, ok := thumbnail(img.Data); ok {
		data, mediaType = thumb, "image/jpeg"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func thumbnail(data []byte) ([]byte, bool) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	b := src.Bounds()
	if b.Dx() <= previewMaxSide && b.Dy() <= previewMaxSide {
		return nil, false
	}

	thumb := resize.Thumbnail(previewMaxSide, previewMaxSide, src, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
