// Package export renders the document model into the deliverable formats, a
// print-ready PDF and an editable office package.
package export

import "errors"

// Result contains the rendered output ready to serve or attach.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPrintDependencyMissing indicates the headless browser used for PDF
	// rendering is not installed.
	ErrPrintDependencyMissing = errors.New("export print dependency missing")
)

// sanitizeFilename creates a safe filename from a title
func sanitizeFilename(title string) string {
	result := ""
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			result += string(r)
		case r == ' ':
			result += "-"
		case r == '-', r == '_':
			result += string(r)
		}
	}

	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		result = "service-report"
	}
	return result
}
