// Package dataurl handles the base64 data URIs exchanged with the UI and the
// image model ("data:image/png;base64,....").
package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrEmpty   = errors.New("empty data url")
	ErrInvalid = errors.New("invalid data url")
)

// IsDataURL reports whether value carries the data: scheme.
func IsDataURL(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), "data:")
}

// Split returns the declared MIME type and the raw base64 payload. A value
// without the data: prefix is treated as bare base64 with fallbackMime.
func Split(value, fallbackMime string) (mimeType string, payload string, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", "", ErrEmpty
	}

	const prefix = "data:"
	if !strings.HasPrefix(value, prefix) {
		return fallbackMime, value, nil
	}

	parts := strings.SplitN(value, ",", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", ErrInvalid
	}

	meta := strings.TrimPrefix(parts[0], prefix)
	mimeType = strings.TrimSpace(strings.Split(meta, ";")[0])
	if mimeType == "" {
		mimeType = fallbackMime
	}
	return mimeType, parts[1], nil
}

// Decode splits and base64-decodes value. When the MIME type is missing it is
// sniffed from the payload.
func Decode(value string) (string, []byte, error) {
	mimeType, payload, err := Split(value, "")
	if err != nil {
		return "", nil, err
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return "", nil, fmt.Errorf("decode base64: %w", err)
		}
	}

	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
		if i := strings.IndexByte(mimeType, ';'); i >= 0 {
			mimeType = strings.TrimSpace(mimeType[:i])
		}
	}
	return mimeType, data, nil
}

func Encode(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
