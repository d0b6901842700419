package heatmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data for heatmap")

// ylOrRd is the nine-step yellow-orange-red ramp, light to dark.
var ylOrRd = []color.RGBA{
	{0xff, 0xff, 0xcc, 0xff},
	{0xff, 0xed, 0xa0, 0xff},
	{0xfe, 0xd9, 0x76, 0xff},
	{0xfe, 0xb2, 0x4c, 0xff},
	{0xfd, 0x8d, 0x3c, 0xff},
	{0xfc, 0x4e, 0x2a, 0xff},
	{0xe3, 0x1a, 0x1c, 0xff},
	{0xbd, 0x00, 0x26, 0xff},
	{0x80, 0x00, 0x26, 0xff},
}

// Ramp maps t in [0, 1] onto the colour scale.
func Ramp(t float64) color.RGBA {
	t = min(max(t, 0), 1)
	pos := t * float64(len(ylOrRd)-1)
	i := int(pos)
	if i >= len(ylOrRd)-1 {
		return ylOrRd[len(ylOrRd)-1]
	}
	frac := pos - float64(i)
	a, b := ylOrRd[i], ylOrRd[i+1]
	lerp := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*frac + 0.5) }
	return color.RGBA{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B), 0xff}
}

const (
	margin     = 30
	titleH     = 30
	stripH     = 90
	labelH     = 20
	barW       = 20
	barGap     = 40
	minCellW   = 50
	maxCellW   = 140
	maxLabelCh = 18
)

// Options names the strip and its colour bar.
type Options struct {
	Title string
	Unit  string
}

// Draw lays the cells out as a one-row heat strip with value labels, column
// labels and a colour bar.
func Draw(cells []Cell, opts Options) (*image.RGBA, error) {
	if len(cells) == 0 {
		return nil, ErrNoData
	}
	face := basicfont.Face7x13

	lo, hi := cells[0].Value, cells[0].Value
	labelW := 0
	for _, c := range cells {
		lo, hi = min(lo, c.Value), max(hi, c.Value)
		labelW = max(labelW, textWidth(face, truncate(c.Label)))
	}
	cellW := min(max(minCellW, labelW+8), maxCellW)

	stripW := cellW * len(cells)
	width := margin + stripW + barGap + barW + 60
	width = max(width, textWidth(face, opts.Title)+2*margin)
	height := margin + titleH + stripH + labelH + margin
	if opts.Unit != "" {
		height += labelH
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	drawText(img, face, opts.Title, (width-textWidth(face, opts.Title))/2, margin+13, color.Black)

	top := margin + titleH
	for i, c := range cells {
		x0 := margin + i*cellW
		fill := Ramp(scale(c.Value, lo, hi))
		draw.Draw(img, image.Rect(x0, top, x0+cellW, top+stripH), image.NewUniform(fill), image.Point{}, draw.Src)

		// Dark cells get white value text.
		var ink color.Color = color.Black
		if float64(c.Value) > float64(hi)*0.7 {
			ink = color.White
		}
		value := strconv.Itoa(c.Value)
		drawText(img, face, value, x0+(cellW-textWidth(face, value))/2, top+stripH/2+5, ink)

		label := truncate(c.Label)
		drawText(img, face, label, x0+(cellW-textWidth(face, label))/2, top+stripH+15, color.Black)
	}

	// Colour bar, dark at the top.
	barX := margin + stripW + barGap
	for y := 0; y < stripH; y++ {
		fill := Ramp(1 - float64(y)/float64(stripH-1))
		draw.Draw(img, image.Rect(barX, top+y, barX+barW, top+y+1), image.NewUniform(fill), image.Point{}, draw.Src)
	}
	drawText(img, face, strconv.Itoa(hi), barX+barW+4, top+10, color.Black)
	drawText(img, face, strconv.Itoa(lo), barX+barW+4, top+stripH, color.Black)
	if opts.Unit != "" {
		drawText(img, face, opts.Unit, barX-textWidth(face, opts.Unit)/2+barW/2, top+stripH+labelH+15, color.Black)
	}
	return img, nil
}

// Render draws the cells and writes a PNG to path.
func Render(path string, cells []Cell, opts Options) (err error) {
	img, err := Draw(cells, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create heatmap %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode heatmap %s: %w", path, err)
	}
	return nil
}

func scale(v, lo, hi int) float64 {
	if hi == lo {
		return 0
	}
	return float64(v-lo) / float64(hi-lo)
}

func truncate(label string) string {
	r := []rune(label)
	if len(r) <= maxLabelCh {
		return label
	}
	return string(r[:maxLabelCh-2]) + ".."
}

func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

func drawText(dst draw.Image, face font.Face, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
