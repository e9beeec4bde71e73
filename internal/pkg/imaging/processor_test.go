package imaging

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestProcessFitsLargeImage(t *testing.T) {
	p := NewProcessor(Config{MaxWidth: 100, MaxHeight: 100, Quality: 80})

	out, err := p.Process(encodePNG(t, 400, 200), "image/png")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !out.Resized {
		t.Fatal("expected image to be resized")
	}
	if out.Width != 100 || out.Height != 50 {
		t.Fatalf("expected 100x50, got %dx%d", out.Width, out.Height)
	}
	if out.ContentType != "image/png" {
		t.Fatalf("expected png output, got %s", out.ContentType)
	}
}

func TestProcessLeavesSmallImage(t *testing.T) {
	p := NewProcessor(DefaultConfig())
	in := encodePNG(t, 10, 10)

	out, err := p.Process(in, "image/png")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out.Resized || !bytes.Equal(out.Data, in) {
		t.Fatal("expected small image to pass through unchanged")
	}
}

func TestProcessPassesThroughUnknownFormat(t *testing.T) {
	p := NewProcessor(DefaultConfig())
	in := []byte("RIFF\x00\x00\x00\x00WEBPVP8 ")

	out, err := p.Process(in, "image/webp")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out.ContentType != "image/webp" || !bytes.Equal(out.Data, in) {
		t.Fatal("expected undecodable format to pass through")
	}
}
