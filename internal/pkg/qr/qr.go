package qr

import (
	"errors"

	"github.com/skip2/go-qrcode"
)

// GeneratePNG renders the given URL as a QR code PNG.
// size 0 picks the default; otherwise it must be between 128 and 1024.
func GeneratePNG(url string, size int) ([]byte, error) {
	if size == 0 {
		size = 256
	}
	if size < 128 || size > 1024 {
		return nil, errors.New("invalid size: must be between 128 and 1024")
	}

	qr, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	return qr.PNG(size)
}
