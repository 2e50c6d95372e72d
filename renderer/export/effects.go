package export

import (
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/blur"

	"github.com/ByLCY/placard/geometry"
)

// gradientImage returns a horizontal linear gradient covering bounds whose
// stops are laid out between x0 and x1.
func gradientImage(stops []geometry.GradientStop, bounds image.Rectangle, x0, x1 float64) *image.RGBA {
	sorted := append([]geometry.GradientStop(nil), stops...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	img := image.NewRGBA(bounds)
	span := x1 - x0
	for x := bounds.Min.X; x < bounds.Max.X; x++ {
		t := 0.0
		if span > 0 {
			t = (float64(x) + 0.5 - x0) / span
		}
		c := sampleStops(sorted, t).Premultiplied()
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func sampleStops(stops []geometry.GradientStop, t float64) geometry.Color {
	if len(stops) == 0 {
		return geometry.White
	}
	if t <= stops[0].Offset {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t <= b.Offset {
			if b.Offset == a.Offset {
				return b.Color
			}
			f := (t - a.Offset) / (b.Offset - a.Offset)
			return geometry.Color{
				R: lerp(a.Color.R, b.Color.R, f),
				G: lerp(a.Color.G, b.Color.G, f),
				B: lerp(a.Color.B, b.Color.B, f),
				A: lerp(a.Color.A, b.Color.A, f),
			}
		}
	}
	return stops[len(stops)-1].Color
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*f + 0.5)
}

// softenShadow blurs the shadow mask with a box blur of the given radius.
// The result's alpha channel is used as the mask.
func softenShadow(mask *image.Alpha, radius float64) image.Image {
	if radius < 0.5 {
		return mask
	}
	return blur.Box(mask, math.Round(radius))
}
