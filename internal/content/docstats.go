package content

import (
	"bytes"
	"regexp"
	"strings"
)

// DocStats are derived document statistics extracted from a decompressed
// payload at retrieval time.
type DocStats struct {
	Pages int `json:"pages"`
	Words int `json:"words"`
}

var (
	pdfPageRe   = regexp.MustCompile(`/Type\s*/Page[^s]`)
	pdfStringRe = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*T[jJ]`)
)

// ExtractStats inspects raw decompressed bytes. PDF payloads get a page
// count from their page objects and a word count from text-show operators;
// plain text gets a word count; anything else yields zero counts rather
// than an error.
func ExtractStats(raw []byte) DocStats {
	if len(raw) == 0 {
		return DocStats{}
	}
	if bytes.HasPrefix(raw, []byte("%PDF")) {
		return pdfStats(raw)
	}
	if looksLikeText(raw) {
		return DocStats{Words: countWords(string(raw))}
	}
	return DocStats{}
}

func pdfStats(raw []byte) DocStats {
	// The trailing [^s] excludes /Type /Pages tree nodes; pad so a page
	// object at EOF still matches.
	padded := append(raw, ' ')
	pages := len(pdfPageRe.FindAll(padded, -1))

	var text strings.Builder
	for _, m := range pdfStringRe.FindAllSubmatch(raw, -1) {
		text.Write(m[1])
		text.WriteByte(' ')
	}
	return DocStats{Pages: pages, Words: countWords(text.String())}
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func looksLikeText(raw []byte) bool {
	sample := raw
	if len(sample) > 512 {
		sample = sample[:512]
	}
	printable := 0
	for _, b := range sample {
		if b == '\n' || b == '\r' || b == '\t' || (b >= 0x20 && b < 0x7f) {
			printable++
		}
	}
	return printable*10 >= len(sample)*9
}
