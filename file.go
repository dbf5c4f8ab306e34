package mysouku

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotPDF is returned by ReadFile for names without a .pdf extension.
var ErrNotPDF = errors.New("not a PDF file name")

// ReadFile reads the flyer at path. The name must end in .pdf (any case)
// and, when maxBytes is positive, the file may not be larger than maxBytes.
func ReadFile(path string, maxBytes int64) ([]byte, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, fmt.Errorf("%s: %w", path, ErrNotPDF)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, fmt.Errorf("%s is %d bytes: %w", path, info.Size(), ErrTooLarge)
	}
	return os.ReadFile(path)
}
