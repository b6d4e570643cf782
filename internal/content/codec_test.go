package content

import (
	"bytes"
	"context"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte(""),
		[]byte("hello world"),
		bytes.Repeat([]byte{0x00, 0xff, 0x42}, 10000),
		[]byte("%PDF-1.4 some document body"),
	}
	for _, raw := range cases {
		compressed, err := Compress(raw)
		if err != nil {
			t.Fatalf("Compress: %v", err)
		}
		back, err := Decompress(compressed)
		if err != nil {
			t.Fatalf("Decompress: %v", err)
		}
		if !bytes.Equal(back, raw) {
			t.Fatalf("round trip mismatch: %d bytes in, %d bytes out", len(raw), len(back))
		}
	}
}

func TestHashHexStable(t *testing.T) {
	a := HashHex([]byte("payload"))
	b := HashHex([]byte("payload"))
	if a != b {
		t.Fatalf("hash not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected sha256 hex digest, got %d chars", len(a))
	}
	if HashHex([]byte("payload2")) == a {
		t.Fatalf("different inputs produced equal digests")
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	if _, err := Decompress([]byte("not gzip at all")); err == nil {
		t.Fatalf("expected error for non-gzip input")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("Get missing: err = %v, want ErrNotFound", err)
	}

	if err := store.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get: %q, %v", got, err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "k"); err != ErrNotFound {
		t.Fatalf("Get after delete: err = %v, want ErrNotFound", err)
	}
}
