package validation

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileRequired = errors.New("no file provided")
	ErrFileSize     = errors.New("file size exceeds limit of 32MB")
	ErrFileType     = errors.New("invalid file type. Only PDF documents are allowed")
	ErrEncoding     = errors.New("file is not valid base64")
)

// MaxPDFSize matches the per-document limit of the model API.
const MaxPDFSize = 32 * 1024 * 1024

const PDFMime = "application/pdf"

// StripDataURL drops a "data:application/pdf;base64," prefix if the client
// sent the file as a data URL.
func StripDataURL(b64 string) string {
	if strings.HasPrefix(b64, "data:") {
		if i := strings.Index(b64, ","); i >= 0 {
			return b64[i+1:]
		}
	}
	return b64
}

// DecodePDF decodes a base64 upload and checks that it is a PDF within the
// size limit.
func DecodePDF(b64 string) ([]byte, error) {
	b64 = strings.TrimSpace(StripDataURL(b64))
	if b64 == "" {
		return nil, ErrFileRequired
	}
	if base64.StdEncoding.DecodedLen(len(b64)) > MaxPDFSize+3 {
		return nil, ErrFileSize
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, ErrEncoding
	}
	if len(data) > MaxPDFSize {
		return nil, ErrFileSize
	}
	if !IsPDF(data) {
		return nil, ErrFileType
	}
	return data, nil
}

func IsPDF(data []byte) bool {
	return mimetype.Detect(data).Is(PDFMime)
}
