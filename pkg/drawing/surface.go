package drawing

import (
	"image"
	"image/png"
	"io"
	"sync"
)

// Surface receives finished frames from an Adapter. Present is called once
// per drawing session, on the worker goroutine, with the complete frame and
// the bounding box of the regions the engine reported as updated.
// Implementations must not retain frame after Present returns unless they
// own it; the adapter hands over a fresh copy each time.
type Surface interface {
	Present(frame *image.RGBA, dirty image.Rectangle)
}

// ImageSurface is an in-memory Surface that keeps the latest frame.
// It is safe for concurrent use.
type ImageSurface struct {
	mu       sync.Mutex
	frame    *image.RGBA
	dirty    image.Rectangle
	presents int
}

// NewImageSurface returns an empty surface.
func NewImageSurface() *ImageSurface {
	return &ImageSurface{}
}

// Present implements Surface.
func (s *ImageSurface) Present(frame *image.RGBA, dirty image.Rectangle) {
	s.mu.Lock()
	s.frame = frame
	s.dirty = dirty
	s.presents++
	s.mu.Unlock()
}

// Frame returns the last presented frame, or nil.
func (s *ImageSurface) Frame() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Dirty returns the dirty rectangle of the last present.
func (s *ImageSurface) Dirty() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Presents returns how many frames have been presented.
func (s *ImageSurface) Presents() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presents
}

// WritePNG encodes the last frame as PNG.
func (s *ImageSurface) WritePNG(w io.Writer) error {
	frame := s.Frame()
	if frame == nil {
		return ErrNoFrame
	}
	return png.Encode(w, frame)
}
