package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(img image.Image) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func decode(t *testing.T, p *Photo) image.Image {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img
}

func TestProcessPhotoJPEG(t *testing.T) {
	p, err := ProcessPhoto(bytes.NewReader(encodeJPEG(solid(100, 100, color.RGBA{255, 0, 0, 255}))))
	if err != nil {
		t.Fatalf("ProcessPhoto: %v", err)
	}
	if p.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", p.MIME)
	}
	if len(p.Data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestProcessPhotoPNGBecomesJPEG(t *testing.T) {
	p, err := ProcessPhoto(bytes.NewReader(encodePNG(solid(60, 40, color.RGBA{0, 0, 255, 255}))))
	if err != nil {
		t.Fatalf("ProcessPhoto: %v", err)
	}
	if p.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", p.MIME)
	}
	if b := decode(t, p).Bounds(); b.Dx() != 60 || b.Dy() != 40 {
		t.Errorf("expected 60x40, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestProcessPhotoTransparentBecomesWhite(t *testing.T) {
	p, err := ProcessPhoto(bytes.NewReader(encodePNG(solid(20, 20, color.RGBA{}))))
	if err != nil {
		t.Fatalf("ProcessPhoto: %v", err)
	}
	r, g, b, _ := decode(t, p).At(10, 10).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Errorf("expected white background, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestProcessPhotoDownscalesKeepingAspect(t *testing.T) {
	p, err := ProcessPhoto(bytes.NewReader(encodeJPEG(solid(1600, 1000, color.Gray{128}))))
	if err != nil {
		t.Fatalf("ProcessPhoto: %v", err)
	}
	b := decode(t, p).Bounds()
	if b.Dx() != MaxDimension || b.Dy() != 500 {
		t.Errorf("expected %dx500, got %dx%d", MaxDimension, b.Dx(), b.Dy())
	}
}

func TestProcessPhotoPortrait(t *testing.T) {
	p, err := ProcessPhoto(bytes.NewReader(encodeJPEG(solid(400, 1600, color.Gray{128}))))
	if err != nil {
		t.Fatalf("ProcessPhoto: %v", err)
	}
	b := decode(t, p).Bounds()
	if b.Dx() != 200 || b.Dy() != MaxDimension {
		t.Errorf("expected 200x%d, got %dx%d", MaxDimension, b.Dx(), b.Dy())
	}
}

func TestProcessPhotoRejectsOtherFormats(t *testing.T) {
	for name, data := range map[string][]byte{
		"text": []byte("not an image"),
		"gif":  []byte("GIF89a..."),
	} {
		if _, err := ProcessPhoto(bytes.NewReader(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestProcessPhotoTooLarge(t *testing.T) {
	data := make([]byte, MaxUploadBytes+10)
	copy(data, encodeJPEG(solid(10, 10, color.White)))

	_, err := ProcessPhoto(bytes.NewReader(data))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}
