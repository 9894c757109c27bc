package entity

import (
	"bytes"
	"crypto/md5" //nolint:gosec // Identity digest, not a security boundary
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Identity returns the identity of an image URL: the MD5 digest of the URL
// string rendered as an upper-case UUID, e.g. "9B2F...-....".
func Identity(rawURL string) string {
	sum := md5.Sum([]byte(rawURL)) //nolint:gosec // See import
	id, err := uuid.FromBytes(sum[:])
	if err != nil {
		// FromBytes only fails for slices that are not 16 bytes long.
		panic(err)
	}
	return strings.ToUpper(id.String())
}

// Decode decodes image bytes in any registered format and returns the
// format name reported by the decoder.
func Decode(data []byte) (image.Image, string, error) {
	return image.Decode(bytes.NewReader(data))
}
