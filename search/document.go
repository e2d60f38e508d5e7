package search

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/emersion/go-mbox"
	"github.com/jhillyerd/enmime"
	"github.com/ledongthuc/pdf"
)

var (
	xmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	blankRunRegex  = regexp.MustCompile(`[ \t]+`)
	rtfParRegex    = regexp.MustCompile(`\\par[d]?\b`)
	rtfControlRe   = regexp.MustCompile(`\\[a-zA-Z]+-?\d* ?`)
	rtfHexEscapeRe = regexp.MustCompile(`\\'[0-9a-fA-F]{2}`)
)

// TextSource pulls plain text out of a binary or encoded document format
type TextSource interface {
	// ExtractText takes raw file bytes and returns extracted plain text
	ExtractText(data []byte) (string, error)
}

// DocumentExtractor scans the text of a document line by line. Line numbers
// refer to the extracted text, not to the raw file.
type DocumentExtractor struct {
	Source TextSource
}

// Scan implements the Extractor interface for document formats
func (e *DocumentExtractor) Scan(path string, matcher *TermMatcher) ([]SearchMatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, accessError(path, err)
	}
	text, err := e.Source.ExtractText(data)
	if err != nil {
		return nil, parseError(path, err)
	}
	return scanText(text, path, matcher), nil
}

// xmlToLines strips markup, turning the given closing tags into line breaks
func xmlToLines(content string, lineTags ...string) string {
	for _, tag := range lineTags {
		content = strings.ReplaceAll(content, tag, tag+"\n")
	}
	text := xmlTagRegex.ReplaceAllString(content, "")
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(blankRunRegex.ReplaceAllString(l, " "))
	}
	return strings.Join(lines, "\n")
}

// zipEntryText reads one entry out of a zip container
func zipEntryText(data []byte, name string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("not a zip container: %w", err)
	}
	for _, file := range zr.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return string(content), nil
	}
	return "", fmt.Errorf("%s not found in container", name)
}

// DOCXText extracts text from .docx files (Office Open XML)
type DOCXText struct{}

// ExtractText implements the TextSource interface for DOCX files
func (e *DOCXText) ExtractText(data []byte) (string, error) {
	content, err := zipEntryText(data, "word/document.xml")
	if err != nil {
		return "", err
	}
	return xmlToLines(content, "</w:p>"), nil
}

// ODTText extracts text from .odt files (OpenDocument Text)
type ODTText struct{}

// ExtractText implements the TextSource interface for ODT files
func (e *ODTText) ExtractText(data []byte) (string, error) {
	content, err := zipEntryText(data, "content.xml")
	if err != nil {
		return "", err
	}
	return xmlToLines(content, "</text:p>", "</text:h>"), nil
}

// EMLText extracts text from .eml files (MIME messages)
type EMLText struct{}

// ExtractText implements the TextSource interface for EML files
func (e *EMLText) ExtractText(data []byte) (string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse EML: %w", err)
	}

	var b strings.Builder
	for _, h := range []string{"From", "To", "Subject", "Date"} {
		if v := env.GetHeader(h); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", h, v)
		}
	}

	// Prefer plain text, fallback to HTML if plain text is empty
	body := env.Text
	if strings.TrimSpace(body) == "" && env.HTML != "" {
		body = xmlToLines(env.HTML, "</p>", "<br>", "<br/>", "</div>", "</tr>")
	}
	b.WriteString(body)
	return b.String(), nil
}

// MBOXText extracts text from .mbox files (collections of MIME messages)
type MBOXText struct{}

// ExtractText implements the TextSource interface for MBOX files
func (e *MBOXText) ExtractText(data []byte) (string, error) {
	reader := mbox.NewReader(bytes.NewReader(data))
	emlText := &EMLText{}
	var text strings.Builder
	messages := 0

	for {
		msg, err := reader.NextMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			if messages == 0 {
				return "", fmt.Errorf("failed to read mbox: %w", err)
			}
			break
		}
		content, err := io.ReadAll(msg)
		if err != nil {
			continue
		}
		extracted, err := emlText.ExtractText(content)
		if err != nil {
			continue
		}
		messages++
		text.WriteString(extracted)
		text.WriteString("\n---\n")
	}

	if messages == 0 {
		return "", errors.New("no readable messages in mbox")
	}
	return text.String(), nil
}

// PDFText extracts text from .pdf files, one line per text row
type PDFText struct{}

// ExtractText implements the TextSource interface for PDF files
func (e *PDFText) ExtractText(data []byte) (out string, err error) {
	// Guard against any panics from the PDF library.
	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = fmt.Errorf("pdf reader panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, rerr := page.GetTextByRow()
		if rerr != nil {
			continue
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(word.S)
			}
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// RTFText extracts text from .rtf files (Rich Text Format)
type RTFText struct{}

// ExtractText implements the TextSource interface for RTF files
func (e *RTFText) ExtractText(data []byte) (string, error) {
	text := string(data)
	if !strings.HasPrefix(strings.TrimSpace(text), `{\rtf`) {
		return "", errors.New("missing RTF header")
	}

	text = rtfParRegex.ReplaceAllString(text, "\n")
	text = rtfHexEscapeRe.ReplaceAllString(text, "")
	text = rtfControlRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "{", "")
	text = strings.ReplaceAll(text, "}", "")

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(blankRunRegex.ReplaceAllString(l, " "))
	}
	return strings.Join(lines, "\n"), nil
}
