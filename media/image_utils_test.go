package media

import "testing"

func TestIsRasterImage(t *testing.T) {
	valid := []string{"photo.jpg", "photo.JPG", "a.jpeg", "b.png", "c.gif", "d.webp"}
	for _, name := range valid {
		if !IsRasterImage(name) {
			t.Errorf("expected %q to be accepted", name)
		}
	}

	invalid := []string{"doc.pdf", "archive.zip", "noext", "movie.mp4", "image.jpg.exe"}
	for _, name := range invalid {
		if IsRasterImage(name) {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func TestSniffContentType(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	if got := SniffContentType(png); got != "image/png" {
		t.Errorf("png payload sniffed as %q", got)
	}

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}
	if got := SniffContentType(jpeg); got != "image/jpeg" {
		t.Errorf("jpeg payload sniffed as %q", got)
	}

	if got := SniffContentType([]byte("just some text")); got == "image/png" || got == "image/jpeg" {
		t.Errorf("text payload sniffed as an image: %q", got)
	}
}
