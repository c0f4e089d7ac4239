package ingest

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// textImage renders text on a white canvas
func textImage(text string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, len(text)*7+40, 40))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(20, 25),
	}
	d.DrawString(text)
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestFromBytesDetectsFormats(t *testing.T) {
	img := textImage("Hello")

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	var gf bytes.Buffer
	if err := gif.Encode(&gf, img, nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"a.png", encodePNG(t, img), MediaPNG},
		{"b.jpg", jpg.Bytes(), MediaJPEG},
		{"c.gif", gf.Bytes(), MediaGIF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := FromBytes(tt.name, tt.data)
			if err != nil {
				t.Fatalf("FromBytes() error = %v", err)
			}
			if in.MediaType != tt.want {
				t.Errorf("MediaType = %s, want %s", in.MediaType, tt.want)
			}
			if in.Name != tt.name {
				t.Errorf("Name = %s, want %s", in.Name, tt.name)
			}
		})
	}
}

func TestFromBytesRejects(t *testing.T) {
	if _, err := FromBytes("empty.png", nil); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("expected ErrEmptyFile, got %v", err)
	}
	if _, err := FromBytes("notes.png", []byte("just some text, not an image")); !errors.Is(err, ErrUnsupportedMediaType) {
		t.Errorf("expected ErrUnsupportedMediaType, got %v", err)
	}
}

func TestExpandPathsOrdersDirectoryEntries(t *testing.T) {
	dir := t.TempDir()
	data := encodePNG(t, textImage("x"))
	for _, name := range []string{"b.png", "a.png", "c.txt", "d.JPG"} {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	single := filepath.Join(t.TempDir(), "z.png")
	if err := os.WriteFile(single, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ExpandPaths([]string{single, dir})
	if err != nil {
		t.Fatalf("ExpandPaths() error = %v", err)
	}
	want := []string{
		single,
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "d.JPG"),
	}
	if len(got) != len(want) {
		t.Fatalf("ExpandPaths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLoadPathsMissing(t *testing.T) {
	if _, err := LoadPaths([]string{filepath.Join(t.TempDir(), "missing.png")}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNormalize(t *testing.T) {
	img := textImage("gif")
	var gf bytes.Buffer
	if err := gif.Encode(&gf, img, nil); err != nil {
		t.Fatal(err)
	}
	in, err := FromBytes("frame.gif", gf.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	out, err := Normalize(in, MediaPNG, MediaJPEG)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if out.MediaType != MediaPNG {
		t.Errorf("MediaType = %s, want %s", out.MediaType, MediaPNG)
	}
	if DetectMediaType(out.Data) != MediaPNG {
		t.Error("normalized data is not PNG")
	}
	if out.Name != "frame.gif" {
		t.Errorf("name changed to %s", out.Name)
	}

	same, err := Normalize(out, MediaPNG)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(same.Data, out.Data) {
		t.Error("accepted type was re-encoded")
	}
}
