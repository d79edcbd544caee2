package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// FileConstraints restricts an upload by sniffed type, extension and size.
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

// JSONConstraints accepts journal export files. Content sniffing reports
// JSON as plain text.
var JSONConstraints = FileConstraints{
	AllowedMimeTypes: map[string]bool{
		"text/plain; charset=utf-8": true,
		"application/json":          true,
	},
	AllowedExtensions: map[string]bool{
		".json": true,
	},
	MaxSize: 5 << 20, // 5MB
}

// ValidateFile checks an upload against c. Rejections are *Error values for
// the "file" field.
func ValidateFile(header *multipart.FileHeader, c FileConstraints) error {
	if header.Size > c.MaxSize {
		return &Error{Field: "file", Message: fmt.Sprintf("File too large: maximum size is %d MB", c.MaxSize/(1<<20))}
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !c.AllowedExtensions[ext] {
		return &Error{Field: "file", Message: fmt.Sprintf("Invalid file extension: %s", ext)}
	}

	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// http.DetectContentType looks at no more than 512 bytes.
	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("failed to read file: %w", err)
	}

	detected := http.DetectContentType(buffer[:n])
	if !c.AllowedMimeTypes[detected] {
		return &Error{Field: "file", Message: fmt.Sprintf("Invalid file type (detected: %s)", detected)}
	}
	return nil
}
