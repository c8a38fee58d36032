package analyze

import (
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// Enrichment helpers for the import path: when an asset arrives without
// a description, a snippet pulled from the content itself gives the rule
// classifier something to match on. Both are best-effort; callers treat
// an empty string as "nothing usable".

// PDFText extracts up to maxChars of plain text from a PDF file
func PDFText(path string, maxChars int) string {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return ""
	}

	buf := make([]byte, maxChars)
	n, err := io.ReadFull(textReader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ""
	}
	return strings.Join(strings.Fields(string(buf[:n])), " ")
}

// HTMLTitle returns the document title of an HTML stream
func HTMLTitle(r io.Reader) string {
	tokenizer := html.NewTokenizer(r)
	inTitle := false
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "title" {
				inTitle = true
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "title" {
				return ""
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		}
	}
}
