// Package share builds the link that opens a wall pre-configured, and its
// QR code.
package share

import (
	"errors"
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"

	"pantrywall/internal/pantry"
)

// DefaultQRSize is the rendered QR code edge in pixels.
const DefaultQRSize = 160

// ErrNoBucket is returned when there is nothing to share yet.
var ErrNoBucket = errors.New("no bucket configured")

// URL returns page's origin, path and query with the bucket in the
// fragment. Any fragment already on page is dropped.
func URL(page *url.URL, ref pantry.Ref) (string, error) {
	if page == nil || !ref.Valid() {
		return "", ErrNoBucket
	}
	out := url.URL{
		Scheme:   page.Scheme,
		User:     page.User,
		Host:     page.Host,
		Path:     page.Path,
		RawPath:  page.RawPath,
		RawQuery: page.RawQuery,
	}
	return out.String() + "#" + Fragment(ref), nil
}

// Fragment encodes ref as pid=<id>&key=<basket>, form-encoded, pid first.
func Fragment(ref pantry.Ref) string {
	return "pid=" + url.QueryEscape(ref.PantryID) + "&key=" + url.QueryEscape(ref.Basket)
}

// QRPNG renders link as a PNG QR code of size x size pixels with a quiet
// zone border.
func QRPNG(link string, size int) ([]byte, error) {
	if link == "" {
		return nil, ErrNoBucket
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
