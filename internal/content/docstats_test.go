package content

import "testing"

const miniPDF = `%PDF-1.4
1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj
2 0 obj << /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 >> endobj
3 0 obj << /Type /Page /Parent 2 0 R /Contents 5 0 R >> endobj
4 0 obj << /Type /Page /Parent 2 0 R /Contents 6 0 R >> endobj
5 0 obj << /Length 44 >> stream
BT /F1 12 Tf (An introduction to distributed systems) Tj ET
endstream endobj
6 0 obj << /Length 30 >> stream
BT (Chapter one begins here) Tj ET
endstream endobj
trailer << /Root 1 0 R >>
%%EOF`

func TestExtractStatsPDF(t *testing.T) {
	stats := ExtractStats([]byte(miniPDF))
	if stats.Pages != 2 {
		t.Fatalf("pages = %d, want 2", stats.Pages)
	}
	// 5 words in the first text object, 4 in the second.
	if stats.Words != 9 {
		t.Fatalf("words = %d, want 9", stats.Words)
	}
}

func TestExtractStatsPlainText(t *testing.T) {
	stats := ExtractStats([]byte("lecture notes on   graph theory\n"))
	if stats.Pages != 0 || stats.Words != 5 {
		t.Fatalf("stats = %+v, want {0 5}", stats)
	}
}

func TestExtractStatsBinary(t *testing.T) {
	stats := ExtractStats([]byte{0x00, 0x01, 0x02, 0x89, 0x50, 0x4e, 0x47})
	if stats != (DocStats{}) {
		t.Fatalf("stats = %+v, want zero", stats)
	}
}

func TestExtractStatsEmpty(t *testing.T) {
	if stats := ExtractStats(nil); stats != (DocStats{}) {
		t.Fatalf("stats = %+v, want zero", stats)
	}
}
