package report

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/teslashibe/go-zenith/pkg/heatmap"
)

// Card geometry.
const (
	CardWidth  = 800
	CardHeight = 560

	margin     = 32
	lineHeight = 18
	barTop     = 300
	barHeight  = 64
	wrapWidth  = (CardWidth - 2*margin) / 7 // basicfont glyphs are 7px wide
)

var (
	colorBackground = color.RGBA{0x0a, 0x0a, 0x0a, 0xff}
	colorZenith     = color.RGBA{0x00, 0xff, 0x41, 0xff}
	colorStable     = color.RGBA{0x3b, 0x82, 0xf6, 0xff}
	colorAlert      = color.RGBA{0xef, 0x44, 0x44, 0xff}
	colorText       = color.RGBA{0xe5, 0xe5, 0xe5, 0xff}
	colorTrack      = color.RGBA{0x1a, 0x1a, 0x1a, 0xff}
)

// SegmentColor maps a heat-map tag to its card color.
func SegmentColor(c heatmap.Color) color.RGBA {
	switch c {
	case heatmap.ColorZenith:
		return colorZenith
	case heatmap.ColorStable:
		return colorStable
	default:
		return colorAlert
	}
}

func rankColor(r Rank) color.RGBA {
	switch r {
	case RankMaster:
		return colorZenith
	case RankProfessional:
		return colorStable
	default:
		return colorText
	}
}

// Card draws the report card.
func Card(r *Report) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	text(img, margin, 40, colorZenith, "ZENITH NEURAL INSIGHT REPORT")
	text(img, margin, 70, rankColor(r.Rank), string(r.Rank))

	y := 100
	for _, line := range r.Lines()[1:9] {
		text(img, margin, y, colorText, line)
		y += lineHeight
	}

	drawHeatmap(img, r.Segments)

	y = barTop + barHeight + 40
	if r.Advice != "" {
		text(img, margin, y, colorZenith, "NEURAL CORE SYNTHESIS ADVICE")
		y += lineHeight
		for _, line := range wrap(r.Advice, wrapWidth) {
			if y > CardHeight-margin {
				break
			}
			text(img, margin, y, colorText, line)
			y += lineHeight
		}
	}
	return img
}

// RenderPNG encodes the report card as PNG.
func RenderPNG(w io.Writer, r *Report) error {
	if err := png.Encode(w, Card(r)); err != nil {
		return fmt.Errorf("report: encode png: %w", err)
	}
	return nil
}

func drawHeatmap(img *image.RGBA, segments []heatmap.Segment) {
	track := image.Rect(margin, barTop, CardWidth-margin, barTop+barHeight)
	draw.Draw(img, track, image.NewUniform(colorTrack), image.Point{}, draw.Src)
	if len(segments) == 0 {
		return
	}

	width := track.Dx() / len(segments)
	if width < 1 {
		width = 1
	}
	for i, s := range segments {
		h := int(float64(barHeight) * s.Stability / 100)
		if h < 2 {
			h = 2
		}
		x0 := track.Min.X + i*width
		x1 := x0 + width - 1
		if x1 <= x0 {
			x1 = x0 + 1
		}
		bar := image.Rect(x0, track.Max.Y-h, x1, track.Max.Y)
		draw.Draw(img, bar, image.NewUniform(SegmentColor(s.Color)), image.Point{}, draw.Src)
	}
}

func text(img *image.RGBA, x, y int, c color.Color, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// wrap splits s into lines of at most width bytes on word boundaries.
func wrap(s string, width int) []string {
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(s) {
		if cur.Len() > 0 && cur.Len()+1+len(word) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
