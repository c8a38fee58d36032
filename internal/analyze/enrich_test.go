package analyze

import (
	"strings"
	"testing"
)

func TestHTMLTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "simple title",
			html: `<html><head><title>My Travel Blog</title></head><body></body></html>`,
			want: "My Travel Blog",
		},
		{
			name: "whitespace trimmed",
			html: "<title>\n  Holiday Notes  \n</title>",
			want: "Holiday Notes",
		},
		{
			name: "no title",
			html: `<html><body><p>nothing here</p></body></html>`,
			want: "",
		},
		{
			name: "malformed markup",
			html: `<title>Unclosed`,
			want: "Unclosed",
		},
		{
			name: "empty input",
			html: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTMLTitle(strings.NewReader(tt.html)); got != tt.want {
				t.Errorf("HTMLTitle = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPDFText_MissingFile(t *testing.T) {
	if got := PDFText("/no/such/file.pdf", 100); got != "" {
		t.Errorf("PDFText on a missing file = %q, want empty", got)
	}
}
