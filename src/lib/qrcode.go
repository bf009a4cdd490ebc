package lib

import (
	"bytes"
	"log"

	"github.com/yeqown/go-qrcode"
)

// RenderQRCode encodes payload as a JPEG QR image.
func RenderQRCode(payload string) ([]byte, error) {
	qrc, err := qrcode.New(payload)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := qrc.SaveTo(&buf); err != nil {
		log.Printf("Could not render qrcode: %s\n", err.Error())
		return nil, err
	}
	return buf.Bytes(), nil
}
