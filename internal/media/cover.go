package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
)

// CoverSize is the edge length of stored cover thumbnails.
const CoverSize = 300

var coverPalette = []color.NRGBA{
	{R: 0x2F, G: 0x5D, B: 0x8A, A: 0xFF},
	{R: 0x8A, G: 0x2F, B: 0x45, A: 0xFF},
	{R: 0x2F, G: 0x8A, B: 0x62, A: 0xFF},
	{R: 0x6B, G: 0x4E, B: 0x8A, A: 0xFF},
	{R: 0x8A, G: 0x6D, B: 0x2F, A: 0xFF},
}

// CoverMaker produces 300x300 PNG cover thumbnails for uploaded materials.
// Every failure degrades: a bad upload image falls back to a stock cover
// from the pool directory, a missing pool falls back to a generated cover,
// and a generation failure yields nil rather than an error.
type CoverMaker struct {
	log         *logger.Logger
	fallbackDir string
	fontFace    font.Face
}

func NewCoverMaker(log *logger.Logger) *CoverMaker {
	makerLog := log.With("component", "CoverMaker")

	fallbackDir := strings.TrimSpace(os.Getenv("COVER_FALLBACK_DIR"))

	var face font.Face
	fontPath := strings.TrimSpace(os.Getenv("COVER_FONT"))
	if fontPath != "" {
		loaded, err := loadFontFace(fontPath, 118)
		if err != nil {
			makerLog.Warn("Could not load cover font, generated covers disabled", "font", fontPath, "error", err)
		} else {
			face = loaded
		}
	}

	return &CoverMaker{
		log:         makerLog,
		fallbackDir: fallbackDir,
		fontFace:    face,
	}
}

// Make returns PNG bytes for a material cover, or nil when no cover could
// be produced at all. raw may be empty; title seeds the generated fallback.
func (cm *CoverMaker) Make(raw []byte, title string) []byte {
	if len(raw) > 0 {
		out, err := scaleCover(raw, CoverSize)
		if err == nil {
			return out
		}
		cm.log.Warn("Cover image unusable, falling back", "error", err)
	}

	if out := cm.randomFallback(); out != nil {
		return out
	}

	out, err := cm.generateCover(title)
	if err != nil {
		cm.log.Warn("Cover generation failed, material stored without cover", "error", err)
		return nil
	}
	return out
}

// scaleCover center-crops to square and resizes to size x size.
func scaleCover(raw []byte, size int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	w := b.Dx()
	h := b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image")
	}
	side := w
	if h < w {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContextForRGBA(dst)
	var out bytes.Buffer
	if err := dc.EncodePNG(&out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

// randomFallback picks a random stock cover from the pool directory and
// normalizes it to the cover size. Returns nil when the pool is missing,
// empty, or holds only unreadable files.
func (cm *CoverMaker) randomFallback() []byte {
	if cm.fallbackDir == "" {
		return nil
	}
	entries, err := os.ReadDir(cm.fallbackDir)
	if err != nil {
		cm.log.Warn("Could not read cover fallback dir", "dir", cm.fallbackDir, "error", err)
		return nil
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".gif":
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil
	}

	// Try pool entries in a random order until one decodes.
	rand.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(cm.fallbackDir, name))
		if err != nil {
			continue
		}
		out, err := scaleCover(raw, CoverSize)
		if err != nil {
			continue
		}
		return out
	}
	return nil
}

// generateCover draws a flat colored tile with the title's initials, the
// same way generated user avatars are built.
func (cm *CoverMaker) generateCover(title string) ([]byte, error) {
	if cm.fontFace == nil {
		return nil, fmt.Errorf("no cover font configured")
	}

	dc := gg.NewContext(CoverSize, CoverSize)
	base := coverPalette[rand.Intn(len(coverPalette))]
	dc.SetColor(base)
	dc.DrawRectangle(0, 0, CoverSize, CoverSize)
	dc.Fill()

	initials := titleInitials(title)
	dc.SetFontFace(cm.fontFace)
	tw, th := dc.MeasureString(initials)
	dc.SetColor(color.White)
	dc.DrawString(initials, CoverSize/2-(tw/2), CoverSize/2+(th/2)-8)

	var out bytes.Buffer
	if err := dc.EncodePNG(&out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

func titleInitials(title string) string {
	words := strings.Fields(title)
	var b strings.Builder
	for _, w := range words {
		for _, r := range w {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToUpper(r))
			}
			break
		}
		if b.Len() >= 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return face, nil
}
