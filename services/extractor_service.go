package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"strings"

	"github.com/jaytaylor/html2text"
	"github.com/joho/godotenv"
	"github.com/muesli/reflow/wordwrap"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// ErrUnsupportedContentType signals that a content type is outside the extraction
// allow-list. It is a defined skip outcome, not a failure: the upload itself still
// succeeds, the file just never becomes searchable.
var ErrUnsupportedContentType = errors.New("unsupported content type")

func init() {
	// Load .env file from the current directory
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}
	if key := os.Getenv("UNIDOC_LICENSE_KEY"); key != "" {
		if err := license.SetMeteredKey(key); err != nil {
			fmt.Printf("ERROR: Failed to set Unidoc license key: %v. PDF processing will fail.\n", err)
		}
	}
}

// Extractor converts uploaded byte buffers into plain text. It is a pure function
// over its inputs; WrapWidth, when positive, re-wraps extracted HTML so chunking
// downstream sees stable line lengths.
type Extractor struct {
	WrapWidth int
}

// NewExtractor creates an extractor. wrapWidth <= 0 disables word wrapping.
func NewExtractor(wrapWidth int) *Extractor {
	return &Extractor{WrapWidth: wrapWidth}
}

const mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Extract returns the plain text content of buf, or ErrUnsupportedContentType for
// anything outside the allow-list (plain text, Markdown, HTML, PDF, DOCX).
func (e *Extractor) Extract(buf []byte, contentType string) (string, error) {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch strings.ToLower(mediaType) {
	case "text/plain", "text/markdown", "text/x-markdown":
		return string(buf), nil
	case "text/html", "application/xhtml+xml":
		return e.extractHTML(buf)
	case "application/pdf":
		return extractPDF(buf)
	case mimeDocx:
		return extractDocx(buf)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
}

// extractHTML converts HTML to text, preserving paragraph breaks as blank lines.
func (e *Extractor) extractHTML(buf []byte) (string, error) {
	text, err := html2text.FromString(string(buf), html2text.Options{OmitLinks: true})
	if err != nil {
		return "", fmt.Errorf("failed to convert html to text: %w", err)
	}
	if e.WrapWidth > 0 {
		text = wordwrap.String(text, e.WrapWidth)
	}
	return text, nil
}

// extractPDF uses UniPDF to get all text from a PDF buffer.
func extractPDF(buf []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return "", err
		}
		ex, err := extractor.New(page)
		if err != nil {
			return "", err
		}
		text, err := ex.ExtractText()
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		sb.WriteString("\n\n") // Add space between pages
	}
	return sb.String(), nil
}

// docxDocument mirrors the parts of word/document.xml we care about.
type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Text []struct {
			Content string `xml:",chardata"`
		} `xml:"t"`
	} `xml:"r"`
}

// extractDocx reads the main document part of a DOCX archive and joins paragraph
// text with newlines.
func extractDocx(buf []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}

		var doc docxDocument
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", fmt.Errorf("failed to parse docx document.xml: %w", err)
		}

		var sb strings.Builder
		for _, p := range doc.Body.Paragraphs {
			for _, r := range p.Runs {
				for _, t := range r.Text {
					sb.WriteString(t.Content)
				}
			}
			sb.WriteString("\n")
		}
		return sb.String(), nil
	}
	return "", errors.New("docx archive has no word/document.xml")
}
