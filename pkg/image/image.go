// Package image defines the pixel-grid abstraction the pipeline runs its
// centroid extraction over: a minimal Image interface plus three
// concrete backings (a byte-per-pixel grid, a bit-packed grid for
// memory-constrained targets, and a read-through cropped view), along
// with histogram computation.
package image

import (
	"fmt"

	"github.com/lodestar-space/startracker/pkg/units"
	"github.com/lodestar-space/startracker/pkg/xerrors"
)

/*****************************************************************************************************************/

// Image is a monochrome pixel grid addressed by units.Pixel. Out-of-bounds
// Get returns 0; out-of-bounds Set is a no-op, matching the teacher's
// windowed-view semantics where boundary reads must not panic on the hot
// path.
type Image interface {
	Get(p units.Pixel) byte
	Set(p units.Pixel, value byte)
	Width() int
	Height() int
	// Reset sets every pixel to 0, so the same image can be reused for
	// another frame without reallocating.
	Reset()
}

/*****************************************************************************************************************/

// ValidPixel reports whether p lies within img's bounds.
func ValidPixel(img Image, p units.Pixel) bool {
	return 0 <= p.X && p.X < img.Width() && 0 <= p.Y && p.Y < img.Height()
}

/*****************************************************************************************************************/

// Histogram tallies pixel intensities into hist, which must have exactly
// 256 bins (one per byte value).
func Histogram(img Image, hist []uint32) error {
	if len(hist) != 256 {
		return fmt.Errorf("histogram bins %d: %w", len(hist), xerrors.ErrInvalidSize)
	}
	for x := 0; x < img.Width(); x++ {
		for y := 0; y < img.Height(); y++ {
			hist[img.Get(units.Pixel{X: x, Y: y})]++
		}
	}
	return nil
}

/*****************************************************************************************************************/

// ByteImage is a dense byte-per-pixel image, the default in-memory
// backing for the core pipeline.
type ByteImage struct {
	pixels []byte
	width  int
	height int
}

/*****************************************************************************************************************/

// NewByteImage allocates a black image of the given size.
func NewByteImage(width, height int) *ByteImage {
	return &ByteImage{pixels: make([]byte, width*height), width: width, height: height}
}

/*****************************************************************************************************************/

// NewByteImageFrom wraps an existing row-major byte slice without copying.
// len(pixels) must equal width*height.
func NewByteImageFrom(pixels []byte, width, height int) (*ByteImage, error) {
	if len(pixels) != width*height {
		return nil, fmt.Errorf("byte image buffer %d, want %dx%d=%d: %w", len(pixels), width, height, width*height, xerrors.ErrInvalidSize)
	}
	return &ByteImage{pixels: pixels, width: width, height: height}, nil
}

/*****************************************************************************************************************/

func (img *ByteImage) index(p units.Pixel) int {
	return p.Y*img.width + p.X
}

/*****************************************************************************************************************/

// Get returns the pixel at p, or 0 if p is out of bounds.
func (img *ByteImage) Get(p units.Pixel) byte {
	if !ValidPixel(img, p) {
		return 0
	}
	return img.pixels[img.index(p)]
}

/*****************************************************************************************************************/

// Set writes the pixel at p; a no-op if p is out of bounds.
func (img *ByteImage) Set(p units.Pixel, value byte) {
	if !ValidPixel(img, p) {
		return
	}
	img.pixels[img.index(p)] = value
}

/*****************************************************************************************************************/

// Width returns the image width in pixels.
func (img *ByteImage) Width() int { return img.width }

// Height returns the image height in pixels.
func (img *ByteImage) Height() int { return img.height }

/*****************************************************************************************************************/

// Reset zeroes every pixel, letting the same backing slice be reused
// for another frame.
func (img *ByteImage) Reset() {
	clear(img.pixels)
}

/*****************************************************************************************************************/

// WordImage packs sub-byte-depth pixels into a backing []byte the way a
// memory-constrained microcontroller would, trading some access speed
// for a smaller footprint. BitsPerPixel must be between 1 and 8.
type WordImage struct {
	words        []byte
	width        int
	height       int
	bitsPerPixel int
}

/*****************************************************************************************************************/

// NewWordImage allocates a black bit-packed image.
func NewWordImage(width, height, bitsPerPixel int) (*WordImage, error) {
	if bitsPerPixel < 1 || bitsPerPixel > 8 {
		return nil, fmt.Errorf("word image bits per pixel %d: %w", bitsPerPixel, xerrors.ErrInvalidSize)
	}
	numPixels := width * height
	numBits := numPixels * bitsPerPixel
	numBytes := (numBits + 7) / 8
	return &WordImage{
		words:        make([]byte, numBytes),
		width:        width,
		height:       height,
		bitsPerPixel: bitsPerPixel,
	}, nil
}

/*****************************************************************************************************************/

func (img *WordImage) bitOffset(p units.Pixel) int {
	return (p.Y*img.width + p.X) * img.bitsPerPixel
}

/*****************************************************************************************************************/

func (img *WordImage) mask() byte {
	return byte(1<<uint(img.bitsPerPixel)) - 1
}

/*****************************************************************************************************************/

// Get returns the pixel at p, scaled up from its packed depth to the
// full byte range (e.g. a 4-bit pixel of value 0xF reads back as 0xFF).
func (img *WordImage) Get(p units.Pixel) byte {
	if !ValidPixel(img, p) {
		return 0
	}
	bit := img.bitOffset(p)
	byteIdx := bit / 8
	shift := uint(bit % 8)
	raw := (img.words[byteIdx] >> shift) & img.mask()
	return scaleUp(raw, img.bitsPerPixel)
}

/*****************************************************************************************************************/

// Set writes the pixel at p, truncating value down to the packed depth.
func (img *WordImage) Set(p units.Pixel, value byte) {
	if !ValidPixel(img, p) {
		return
	}
	raw := scaleDown(value, img.bitsPerPixel)
	bit := img.bitOffset(p)
	byteIdx := bit / 8
	shift := uint(bit % 8)
	m := img.mask()
	img.words[byteIdx] = (img.words[byteIdx] &^ (m << shift)) | ((raw & m) << shift)
}

/*****************************************************************************************************************/

// Width returns the image width in pixels.
func (img *WordImage) Width() int { return img.width }

// Height returns the image height in pixels.
func (img *WordImage) Height() int { return img.height }

/*****************************************************************************************************************/

// Reset zeroes every packed word, letting the same backing slice be
// reused for another frame.
func (img *WordImage) Reset() {
	clear(img.words)
}

/*****************************************************************************************************************/

// CopyFrom copies src into img pixel by pixel, depth-shifting intensities
// to img's bit depth. Panics are avoided; dimension mismatches are
// reported rather than silently cropped.
func (img *WordImage) CopyFrom(src Image) error {
	if src.Width() != img.width || src.Height() != img.height {
		return fmt.Errorf("copy from %dx%d into %dx%d: %w", src.Width(), src.Height(), img.width, img.height, xerrors.ErrInvalidSize)
	}
	for x := 0; x < img.width; x++ {
		for y := 0; y < img.height; y++ {
			p := units.Pixel{X: x, Y: y}
			img.Set(p, src.Get(p))
		}
	}
	return nil
}

/*****************************************************************************************************************/

func scaleDown(value byte, bits int) byte {
	if bits >= 8 {
		return value
	}
	return value >> uint(8-bits)
}

/*****************************************************************************************************************/

func scaleUp(raw byte, bits int) byte {
	if bits >= 8 {
		return raw
	}
	maxRaw := byte(1<<uint(bits)) - 1
	return byte(int(raw) * 255 / int(maxRaw))
}

/*****************************************************************************************************************/

// CroppedImage presents a window of img as if it were a full-sized image
// of sizeFake, with the real pixels offset by a fixed padding and everything outside the
// window reading as 0. The padding is computed as
// size_fake/4 rounded up on each axis, reproducing the original's
// asymmetric framing rather than a true centered crop.
type CroppedImage struct {
	img      Image
	sizeFake units.Pixel
}

/*****************************************************************************************************************/

// NewCroppedImage wraps img to present as sizeFake, centered per the
// div-ceil-by-4 padding rule.
func NewCroppedImage(img Image, sizeFake units.Pixel) *CroppedImage {
	return &CroppedImage{img: img, sizeFake: sizeFake}
}

/*****************************************************************************************************************/

func divCeil4(n int) int {
	return (n + 3) / 4
}

/*****************************************************************************************************************/

func (img *CroppedImage) padding() units.Pixel {
	return units.Pixel{X: divCeil4(img.sizeFake.X), Y: divCeil4(img.sizeFake.Y)}
}

/*****************************************************************************************************************/

// Get returns the pixel at p in the fake coordinate space, or 0 if p
// falls outside the real window.
func (img *CroppedImage) Get(p units.Pixel) byte {
	pad := img.padding()
	if pad.X <= p.X && p.X < img.img.Width()+pad.X &&
		pad.Y <= p.Y && p.Y < img.img.Height()+pad.Y {
		return img.img.Get(units.Pixel{X: p.X - pad.X, Y: p.Y - pad.Y})
	}
	return 0
}

/*****************************************************************************************************************/

// Set writes to p in the fake coordinate space; a no-op outside the real
// window.
func (img *CroppedImage) Set(p units.Pixel, value byte) {
	pad := img.padding()
	if pad.X <= p.X && p.X < img.img.Width()+pad.X &&
		pad.Y <= p.Y && p.Y < img.img.Height()+pad.Y {
		img.img.Set(units.Pixel{X: p.X - pad.X, Y: p.Y - pad.Y}, value)
	}
}

/*****************************************************************************************************************/

// Width returns the presented (fake) width.
func (img *CroppedImage) Width() int { return img.sizeFake.X }

// Height returns the presented (fake) height.
func (img *CroppedImage) Height() int { return img.sizeFake.Y }

/*****************************************************************************************************************/

// Reset zeroes every pixel of the real window underneath the crop,
// leaving the wrapped image's dimensions untouched.
func (img *CroppedImage) Reset() {
	for x := 0; x < img.sizeFake.X; x++ {
		for y := 0; y < img.sizeFake.Y; y++ {
			img.Set(units.Pixel{X: x, Y: y}, 0)
		}
	}
}

/*****************************************************************************************************************/
