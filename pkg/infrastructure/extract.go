package infrastructure

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedFormat marks a file extension the extractor cannot handle.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrExtractionFailure marks a file of a supported format that could not
	// be read, or that yielded no text.
	ErrExtractionFailure = errors.New("could not extract text from file")
)

// ExtractText pulls plain text out of an uploaded CV. Format is the lowercase
// file extension without the dot ("pdf", "docx", "txt").
func ExtractText(data []byte, format string) (string, error) {
	switch format {
	case "pdf":
		return extractPDF(data)
	case "docx":
		return extractDOCX(data)
	case "txt":
		return string(data), nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "format %q", format)
	}
}

func extractPDF(data []byte) (_ string, err error) {
	// the pdf package panics on some malformed documents
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrExtractionFailure, "parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Wrap(ErrExtractionFailure, err.Error())
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", errors.Wrap(ErrExtractionFailure, err.Error())
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", errors.Wrap(ErrExtractionFailure, err.Error())
	}
	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", errors.Wrap(ErrExtractionFailure, "document contains no text")
	}
	return text, nil
}

// extractDOCX reads word/document.xml out of the OOXML archive and collects
// the text runs, one line per paragraph.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Wrap(ErrExtractionFailure, err.Error())
	}

	var doc io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			if err != nil {
				return "", errors.Wrap(ErrExtractionFailure, err.Error())
			}
			break
		}
	}
	if doc == nil {
		return "", errors.Wrap(ErrExtractionFailure, "archive has no word/document.xml")
	}
	defer doc.Close()

	var sb strings.Builder
	dec := xml.NewDecoder(doc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrap(ErrExtractionFailure, err.Error())
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				var run string
				if err := dec.DecodeElement(&run, &el); err != nil {
					return "", errors.Wrap(ErrExtractionFailure, err.Error())
				}
				sb.WriteString(run)
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				sb.WriteString("\n")
			}
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.Wrap(ErrExtractionFailure, "document contains no text")
	}
	return text, nil
}
