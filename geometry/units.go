package geometry

// This file defines the design constants and the reference-width scaling helpers.

// ReferenceWidth is the mobile viewport width the design constants are authored for.
const ReferenceWidth = 375.0

// Design constants at the reference width. They are multiplied by
// CanvasContext.ResolutionScale before use and are not configurable per call.
const (
	PaddingH        = 16.0
	PaddingV        = 8.0
	CornerRadius    = 8.0
	ShadowOffset    = 1.0
	ShadowBlur      = 3.0
	LineHeightRatio = 1.2
	WrapWidthRatio  = 0.8
	CharWidthRatio  = 0.55
	EmojiWeight     = 1.2
	DefaultFontSize = 24.0
	DefaultMaxLines = 3
)

// ResolutionScale returns targetWidth / ReferenceWidth. Non-positive widths map to 1.
func ResolutionScale(targetWidth float64) float64 {
	if !finite(targetWidth) || targetWidth <= 0 {
		return 1
	}
	return targetWidth / ReferenceWidth
}

// NewCanvasContext builds a canvas context whose resolution scale is derived from its width.
func NewCanvasContext(width, height uint32) CanvasContext {
	return CanvasContext{
		Width:           width,
		Height:          height,
		ResolutionScale: ResolutionScale(float64(width)),
	}
}

// Scaled converts a length authored at the reference width into pixels for c.
func (c CanvasContext) Scaled(v float64) float64 {
	return v * c.Sanitized().ResolutionScale
}

// ToReference converts a pixel length on c back to the reference width.
func (c CanvasContext) ToReference(px float64) float64 {
	return px / c.Sanitized().ResolutionScale
}

// FontSize returns the effective pixel font size for a base size and placement scale.
func (c CanvasContext) FontSize(base, scale float64) float64 {
	if !finite(base) || base <= 0 {
		base = DefaultFontSize
	}
	return base * ClampScale(scale) * c.Sanitized().ResolutionScale
}
