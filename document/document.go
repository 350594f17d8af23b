// Package document turns an uploaded file into the short summary the crew
// receives alongside the task.
package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrUnsupported is returned for file types that cannot be read as text.
var ErrUnsupported = errors.New("unsupported file type")

var binaryExtensions = map[string]bool{
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".zip": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
}

// Load decodes an uploaded file into text. PDFs yield the text of their
// pages. For other files valid UTF-8 is used as is; anything else is decoded
// as Windows-1250, the legacy encoding of Romanian documents.
func Load(name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".pdf" {
		return loadPDF(data)
	}
	if binaryExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}

	data = trimBOM(data)
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := charmap.Windows1250.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�"), nil
	}
	return string(decoded), nil
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
