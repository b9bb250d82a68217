package preprocess

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/anime-shed/label-inspector-go/pkg/models"
)

func encodeTestImage(t *testing.T, width, height int) models.LabelImage {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	for x := 0; x < width/2; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.NRGBA{R: 30, G: 30, B: 30, A: 255})
		}
	}
	label, err := Encode(img)
	if err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return label
}

// rotatedJPEG encodes a width x height image whose EXIF orientation (6) asks
// viewers to rotate it 90 degrees clockwise
func rotatedJPEG(t *testing.T, width, height int) models.LabelImage {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(width, height, color.NRGBA{R: 120, G: 120, B: 120, A: 255})
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	exif := []byte{
		0xFF, 0xE1, 0x00, 0x22,
		'E', 'x', 'i', 'f', 0x00, 0x00,
		'M', 'M', 0x00, 0x2A, 0x00, 0x00, 0x00, 0x08,
		0x00, 0x01,
		0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, 0x00, 0x06, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	data := buf.Bytes()
	out := append([]byte{}, data[:2]...)
	out = append(out, exif...)
	out = append(out, data[2:]...)
	return models.LabelImage{Data: out}
}

type failingTransformer struct {
	failOn map[OpKind]bool
	inner  Transformer
}

func (f *failingTransformer) Apply(img image.Image, op Op) (image.Image, error) {
	if f.failOn == nil || f.failOn[op.Kind] {
		return nil, errors.New("transform failed")
	}
	return f.inner.Apply(img, op)
}

func variantKinds(variants []Variant) []VariantKind {
	kinds := make([]VariantKind, len(variants))
	for i, v := range variants {
		kinds[i] = v.Kind
	}
	return kinds
}

func TestGenerate(t *testing.T) {
	img := encodeTestImage(t, 40, 20)

	tests := []struct {
		name        string
		transformer Transformer
		opts        Options
		expected    []VariantKind
	}{
		{
			name:        "All variants",
			transformer: NewImagingTransformer(),
			opts:        DefaultOptions(),
			expected:    []VariantKind{VariantOriginal, VariantEnhanced, VariantHighContrast, VariantThresholded, VariantEdgeEnhanced, VariantInverted},
		},
		{
			name:        "Threshold disabled",
			transformer: NewImagingTransformer(),
			opts:        Options{Contrast: 1.5},
			expected:    []VariantKind{VariantOriginal, VariantEnhanced, VariantHighContrast, VariantEdgeEnhanced, VariantInverted},
		},
		{
			name:        "Every transform fails",
			transformer: &failingTransformer{},
			opts:        DefaultOptions(),
			expected:    []VariantKind{VariantOriginal},
		},
		{
			name:        "Negate fails",
			transformer: &failingTransformer{failOn: map[OpKind]bool{OpNegate: true}, inner: NewImagingTransformer()},
			opts:        DefaultOptions(),
			expected:    []VariantKind{VariantOriginal, VariantEnhanced, VariantHighContrast, VariantThresholded, VariantEdgeEnhanced},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			variants := NewGenerator(tt.transformer, tt.opts).Generate(context.Background(), img)
			kinds := variantKinds(variants)
			if len(kinds) != len(tt.expected) {
				t.Fatalf("expected variants %v, got %v", tt.expected, kinds)
			}
			for i := range kinds {
				if kinds[i] != tt.expected[i] {
					t.Errorf("variant %d: expected %s, got %s", i, tt.expected[i], kinds[i])
				}
			}
			if !bytes.Equal(variants[0].Image.Data, img.Data) {
				t.Error("first variant must be the unmodified original")
			}
			for _, v := range variants[1:] {
				if v.Image.Width != 40 || v.Image.Height != 20 {
					t.Errorf("%s: unexpected size %dx%d", v.Kind, v.Image.Width, v.Image.Height)
				}
			}
		})
	}
}

func TestGenerate_UndecodableImage(t *testing.T) {
	img := models.LabelImage{Data: []byte("not an image")}
	variants := NewGenerator(NewImagingTransformer(), DefaultOptions()).Generate(context.Background(), img)
	if len(variants) != 1 || variants[0].Kind != VariantOriginal {
		t.Fatalf("expected original only, got %v", variantKinds(variants))
	}
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	variants := NewGenerator(NewImagingTransformer(), DefaultOptions()).Generate(ctx, encodeTestImage(t, 10, 10))
	if len(variants) != 1 {
		t.Fatalf("expected original only after cancellation, got %v", variantKinds(variants))
	}
}

func TestGenerate_FreshSlicePerCall(t *testing.T) {
	g := NewGenerator(NewImagingTransformer(), DefaultOptions())
	img := encodeTestImage(t, 10, 10)
	first := g.Generate(context.Background(), img)
	first[0].Kind = "mutated"
	second := g.Generate(context.Background(), img)
	if second[0].Kind != VariantOriginal {
		t.Error("Generate must return a fresh slice on every call")
	}
}

func TestDetectLabelRegion(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		ok            bool
		region        image.Rectangle
	}{
		{"Bottle", 100, 200, true, image.Rect(20, 60, 80, 140)},
		{"Square", 100, 100, false, image.Rectangle{}},
		{"Exactly at ratio", 100, 150, false, image.Rectangle{}},
		{"Landscape", 200, 100, false, image.Rectangle{}},
		{"Zero size", 0, 0, false, image.Rectangle{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, ok := DetectLabelRegion(tt.width, tt.height)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if region != tt.region {
				t.Errorf("expected region %v, got %v", tt.region, region)
			}
		})
	}
}

func TestPreparer(t *testing.T) {
	t.Run("Bottle is cropped and upsampled", func(t *testing.T) {
		prepared, cropped := NewPreparer(NewImagingTransformer()).Prepare(encodeTestImage(t, 100, 200))
		if !cropped {
			t.Fatal("expected bottle shot to be cropped")
		}
		if prepared.Width != 120 || prepared.Height != 160 {
			t.Errorf("expected 120x160, got %dx%d", prepared.Width, prepared.Height)
		}
	})

	t.Run("EXIF rotated bottle is measured upright", func(t *testing.T) {
		prepared, cropped := NewPreparer(NewImagingTransformer()).Prepare(rotatedJPEG(t, 300, 150))
		if !cropped {
			t.Fatal("expected rotated portrait shot to be cropped")
		}
		if prepared.Width != 180 || prepared.Height != 240 {
			t.Errorf("expected 180x240, got %dx%d", prepared.Width, prepared.Height)
		}
	})

	t.Run("Non bottle is untouched", func(t *testing.T) {
		img := encodeTestImage(t, 100, 100)
		prepared, cropped := NewPreparer(NewImagingTransformer()).Prepare(img)
		if cropped {
			t.Fatal("did not expect a crop")
		}
		if !bytes.Equal(prepared.Data, img.Data) {
			t.Error("expected original bytes")
		}
		if prepared.Width != 100 || prepared.Height != 100 {
			t.Errorf("expected dimensions to be filled in, got %dx%d", prepared.Width, prepared.Height)
		}
	})

	t.Run("Failed crop falls back to full image", func(t *testing.T) {
		img := encodeTestImage(t, 100, 200)
		prepared, cropped := NewPreparer(&failingTransformer{}).Prepare(img)
		if cropped {
			t.Fatal("did not expect a crop")
		}
		if !bytes.Equal(prepared.Data, img.Data) {
			t.Error("expected original bytes")
		}
	})

	t.Run("Undecodable image is returned as is", func(t *testing.T) {
		img := models.LabelImage{Data: []byte{0x01, 0x02}}
		prepared, cropped := NewPreparer(NewImagingTransformer()).Prepare(img)
		if cropped || !bytes.Equal(prepared.Data, img.Data) {
			t.Error("expected untouched image")
		}
	})
}

func TestImagingTransformer(t *testing.T) {
	tr := NewImagingTransformer()
	src := imaging.New(10, 10, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	for x := 5; x < 10; x++ {
		for y := 0; y < 10; y++ {
			src.Set(x, y, color.NRGBA{R: 150, G: 150, B: 150, A: 255})
		}
	}

	t.Run("Threshold is binary", func(t *testing.T) {
		out, err := tr.Apply(src, Threshold(128))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		dark := color.NRGBAModel.Convert(out.At(0, 0)).(color.NRGBA)
		light := color.NRGBAModel.Convert(out.At(9, 0)).(color.NRGBA)
		if dark.R != 0 || light.R != 255 {
			t.Errorf("expected 0 and 255, got %d and %d", dark.R, light.R)
		}
	})

	t.Run("Normalize stretches range", func(t *testing.T) {
		out, err := tr.Apply(src, Normalize())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		dark := color.NRGBAModel.Convert(out.At(0, 0)).(color.NRGBA)
		light := color.NRGBAModel.Convert(out.At(9, 0)).(color.NRGBA)
		if dark.R > 10 || light.R < 245 {
			t.Errorf("expected stretched range, got %d and %d", dark.R, light.R)
		}
	})

	t.Run("Linear contrast", func(t *testing.T) {
		out, err := tr.Apply(src, Linear(2, -100))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		px := color.NRGBAModel.Convert(out.At(9, 0)).(color.NRGBA)
		if px.R != 200 {
			t.Errorf("expected 200, got %d", px.R)
		}
	})

	t.Run("Negate", func(t *testing.T) {
		out, err := tr.Apply(src, Negate())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		px := color.NRGBAModel.Convert(out.At(0, 0)).(color.NRGBA)
		if px.R != 155 {
			t.Errorf("expected 155, got %d", px.R)
		}
	})

	errorCases := []struct {
		name string
		img  image.Image
		op   Op
		err  error
	}{
		{"Unsupported op", src, Op{Kind: "blur"}, ErrUnsupportedOp},
		{"Crop outside bounds", src, Crop(image.Rect(50, 50, 60, 60)), ErrInvalidParams},
		{"Resize to nothing", src, Resize(0, 0), ErrInvalidParams},
		{"Zero sigma", src, Sharpen(0), ErrInvalidParams},
		{"Empty image", image.NewNRGBA(image.Rect(0, 0, 0, 0)), Grayscale(), ErrEmptyImage},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tr.Apply(tt.img, tt.op); !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}
}
