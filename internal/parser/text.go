// Package parser extracts raw text and best-effort structured fields from
// resume files. Text extraction rides on docconv; field extraction here is
// the heuristic fallback behind the structured extractor.
package parser

import (
	"bytes"
	"strings"

	"code.sajari.com/docconv"

	"resume-triage/internal/errs"
)

// ExtractText pulls plain text out of a resume file according to its declared
// media type. Failures here are permanent: retrying cannot fix corrupt bytes
// or an unsupported format.
func ExtractText(data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", errs.Permanentf("file is empty")
	}

	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	if strings.HasPrefix(mt, "text/") {
		text := strings.TrimSpace(string(data))
		if text == "" {
			return "", errs.Permanentf("file contains no text")
		}
		return text, nil
	}

	switch mt {
	case "application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/rtf",
		"application/vnd.oasis.opendocument.text":
		res, err := docconv.Convert(bytes.NewReader(data), mt, true)
		if err != nil {
			return "", errs.Permanentf("failed to extract text (%s): %v", mt, err)
		}
		text := strings.TrimSpace(res.Body)
		if text == "" {
			return "", errs.Permanentf("extracted text is empty")
		}
		return text, nil
	default:
		return "", errs.Permanentf("unsupported media type: %q", mimeType)
	}
}
