package drawing

import (
	"image"
	"image/draw"

	"github.com/go-drift/puzzles/pkg/engine"
)

type blitter struct {
	pix   *image.RGBA
	saved image.Point
}

// blitterArena owns the offscreen buffers of one adapter.
type blitterArena struct {
	next    engine.Blitter
	entries map[engine.Blitter]*blitter
}

func (a *blitterArena) alloc(size engine.Size) engine.Blitter {
	if a.entries == nil {
		a.entries = make(map[engine.Blitter]*blitter)
	}
	a.next++
	a.entries[a.next] = &blitter{pix: image.NewRGBA(image.Rect(0, 0, max(size.W, 0), max(size.H, 0)))}
	return a.next
}

func (a *blitterArena) get(h engine.Blitter) (*blitter, bool) {
	bl, ok := a.entries[h]
	return bl, ok
}

func (a *blitterArena) free(h engine.Blitter) {
	delete(a.entries, h)
}

func (a *blitterArena) len() int {
	return len(a.entries)
}

func (a *blitterArena) clear() {
	a.entries = nil
}

// save copies the region of src at origin into bl. Pixels outside src
// become transparent.
func (bl *blitter) save(src image.Image, origin image.Point) {
	bl.saved = origin
	draw.Draw(bl.pix, bl.pix.Bounds(), image.Transparent, image.Point{}, draw.Src)
	draw.Draw(bl.pix, bl.pix.Bounds(), src, origin, draw.Src)
}

// load copies bl into dst with its top left corner at origin.
func (bl *blitter) load(dst draw.Image, origin image.Point) {
	r := bl.pix.Bounds().Add(origin)
	draw.Draw(dst, r, bl.pix, image.Point{}, draw.Src)
}
