// Package card renders "now playing" track cards as PNG images.
package card

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"time"

	_ "image/jpeg" // album covers are usually JPEG

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"github.com/trumully/dynamo/internal/timeutil"
)

// Layout constants. The card is a colored frame around a dark background,
// album art filling the left square and track details to its right.
const (
	cardWidth  = 800
	cardHeight = 250
	padding    = 15
	border     = 8

	albumSize = cardHeight - border*2 + 1 // 235
	logoSize  = 48                        // top-right corner reserved by the layout

	contentStartX = albumSize + border*2 // 251
	titleStartY   = padding

	progressBarX      = contentStartX
	progressBarWidth  = cardWidth - contentStartX - padding - border - 70 // 456
	progressBarHeight = 6
	progressBarY      = cardHeight - padding - border - progressBarHeight - 30 // 191
	progressTextY     = cardHeight - padding - border - 24                     // 203

	titleFontSize    = 28
	artistFontSize   = 22
	progressFontSize = 18

	// titleWidth is the room the title may occupy before it is truncated,
	// keeping it clear of the reserved corner.
	titleWidth = cardWidth - contentStartX - logoSize - padding*2 - border // 463
)

var (
	backgroundColor = color.RGBA{R: 5, G: 5, B: 25, A: 255}
	textColor       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	lengthBarColor  = color.RGBA{R: 64, G: 64, B: 64, A: 255}
)

// Track holds everything drawn onto a card.
type Track struct {
	Title   string
	Artists []string
	Album   []byte     // raw album cover image bytes
	Accent  color.RGBA // frame color

	// Duration and End drive the progress bar; leave either zero to omit it.
	Duration time.Duration
	End      time.Time
}

type fontPair struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// loadFonts parses the embedded typefaces once. Faces are built per render
// because a font.Face is not safe for concurrent use.
var loadFonts = sync.OnceValues(func() (*fontPair, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &fontPair{regular: regular, bold: bold}, nil
})

type faceSet struct {
	title    font.Face
	artist   font.Face
	progress font.Face
}

func newFaces() (*faceSet, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}

	newFace := func(f *opentype.Font, size float64) (font.Face, error) {
		return opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	}

	title, err := newFace(fonts.bold, titleFontSize)
	if err != nil {
		return nil, fmt.Errorf("title face: %w", err)
	}
	artist, err := newFace(fonts.regular, artistFontSize)
	if err != nil {
		return nil, fmt.Errorf("artist face: %w", err)
	}
	progress, err := newFace(fonts.regular, progressFontSize)
	if err != nil {
		return nil, fmt.Errorf("progress face: %w", err)
	}

	return &faceSet{title: title, artist: artist, progress: progress}, nil
}

// Render draws the card for a track and returns it as PNG bytes. The
// progress bar reflects playback position at the given time.
func Render(track Track, now time.Time) ([]byte, error) {
	album, _, err := image.Decode(bytes.NewReader(track.Album))
	if err != nil {
		return nil, fmt.Errorf("decode album cover: %w", err)
	}

	faces, err := newFaces()
	if err != nil {
		return nil, err
	}

	base := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	fill(base, base.Bounds(), track.Accent)
	fill(base, image.Rect(border, border, cardWidth-border, cardHeight-border), backgroundColor)

	albumRect := image.Rect(border, border, border+albumSize, border+albumSize)
	draw.CatmullRom.Scale(base, albumRect, album, album.Bounds(), draw.Src, nil)

	title := truncate(faces.title, track.Title, fixed.I(titleWidth))
	drawText(base, faces.title, title, contentStartX, titleStartY)
	drawText(base, faces.artist, strings.Join(track.Artists, ", "), contentStartX, titleStartY+titleFontSize+5)

	if track.Duration > 0 && !track.End.IsZero() {
		drawProgressBar(base, faces.progress, track.Duration, track.End, now)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, base); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return buf.Bytes(), nil
}

func drawProgressBar(dst *image.RGBA, face font.Face, duration time.Duration, end, now time.Time) {
	progress := 1 - end.Sub(now).Seconds()/duration.Seconds()

	fill(dst, image.Rect(
		progressBarX,
		progressBarY,
		progressBarX+progressBarWidth,
		progressBarY+progressBarHeight,
	), lengthBarColor)

	played := min(progressBarWidth, int(float64(progressBarWidth)*progress))
	if played > 0 {
		fill(dst, image.Rect(
			progressBarX,
			progressBarY,
			progressBarX+played,
			progressBarY+progressBarHeight,
		), textColor)
	}

	playedTime := min(duration, time.Duration(float64(duration)*progress))
	playedTime = max(0, playedTime)
	text := timeutil.TrackDuration(playedTime) + " / " + timeutil.TrackDuration(duration)
	drawText(dst, face, text, progressBarX, progressTextY)
}

// truncate shortens s with a trailing ellipsis so it fits in maxWidth.
func truncate(face font.Face, s string, maxWidth fixed.Int26_6) string {
	if font.MeasureString(face, s) <= maxWidth {
		return s
	}

	const ellipsis = "…"
	budget := maxWidth - font.MeasureString(face, ellipsis)
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if font.MeasureString(face, string(runes)) <= budget {
			break
		}
	}
	return strings.TrimRight(string(runes), " ") + ellipsis
}

// drawText draws s with its ascender line at y, matching the top-anchored
// layout coordinates.
func drawText(dst *image.RGBA, face font.Face, s string, x, y int) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y) + face.Metrics().Ascent},
	}
	d.DrawString(s)
}

func fill(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}
