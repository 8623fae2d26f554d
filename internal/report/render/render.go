package render

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

const (
	DefaultWidth  = 960
	DefaultHeight = 640

	margin     = 72.0
	labelSize  = 13
	titleSize  = 20
	areaAlpha  = 90
	gridColor  = "#E5E7EB"
	axisColor  = "#6B7280"
	textColor  = "#111827"
	background = "#FFFFFF"
)

// Renderer draws graph descriptors to PNG. Faces are built per call since font.Face is not goroutine-safe.
type Renderer struct {
	regular *truetype.Font
	bold    *truetype.Font

	Width  int
	Height int
}

// New loads the label font from fontPath, or the bundled Go fonts when the path is empty.
func New(fontPath string) (*Renderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	if p := strings.TrimSpace(fontPath); p != "" {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		if regular, err = truetype.Parse(raw); err != nil {
			return nil, fmt.Errorf("failed to parse TTF: %w", err)
		}
	}
	return &Renderer{regular: regular, bold: bold, Width: DefaultWidth, Height: DefaultHeight}, nil
}

func (r *Renderer) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
}

// Render draws one descriptor and returns PNG bytes.
func (r *Renderer) Render(g assessment.GraphDescriptor) ([]byte, error) {
	dc := gg.NewContext(r.Width, r.Height)
	dc.SetColor(hexColor(background, 255))
	dc.Clear()

	dc.SetFontFace(r.face(r.bold, titleSize))
	dc.SetColor(hexColor(textColor, 255))
	dc.DrawStringAnchored(g.Title, float64(r.Width)/2, margin/2, 0.5, 0.5)
	dc.SetFontFace(r.face(r.regular, labelSize))

	switch g.Kind {
	case assessment.ChartRadar:
		r.radar(dc, g)
	case assessment.ChartTrendLine:
		r.lines(dc, g, false)
	case assessment.ChartPredictionArea:
		r.lines(dc, g, true)
	case assessment.ChartDistribution:
		r.bars(dc, g)
	case assessment.ChartHeatmap:
		r.heatmap(dc, g)
	default:
		return nil, fmt.Errorf("unknown chart kind %q", g.Kind)
	}
	r.legend(dc, g)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderAll draws every chart in the set, keyed by chart kind.
func (r *Renderer) RenderAll(set assessment.GraphDescriptorSet) (map[string][]byte, error) {
	out := make(map[string][]byte, len(assessment.ChartKinds))
	for _, kind := range assessment.ChartKinds {
		g, _ := set.ByKind(kind)
		img, err := r.Render(g)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", kind, err)
		}
		out[kind] = img
	}
	return out, nil
}

// Thumbnail scales a rendered PNG down to width, keeping the aspect ratio.
func Thumbnail(raw []byte, width int) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	if width <= 0 || width >= b.Dx() {
		return raw, nil
	}
	height := int(math.Round(float64(b.Dy()) * float64(width) / float64(b.Dx())))
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) plotArea() (x0, y0, x1, y1 float64) {
	return margin, margin, float64(r.Width) - margin, float64(r.Height) - margin
}

// yFor maps a 0..100 score to the plot's vertical axis.
func (r *Renderer) yFor(v float64) float64 {
	_, y0, _, y1 := r.plotArea()
	return y1 - (assessment.Clamp(v, 0, 100)/100)*(y1-y0)
}

func (r *Renderer) axes(dc *gg.Context) {
	x0, y0, x1, y1 := r.plotArea()
	dc.SetLineWidth(1)
	for v := 0.0; v <= 100; v += 20 {
		y := r.yFor(v)
		dc.SetColor(hexColor(gridColor, 255))
		dc.DrawLine(x0, y, x1, y)
		dc.Stroke()
		dc.SetColor(hexColor(axisColor, 255))
		dc.DrawStringAnchored(fmt.Sprintf("%.0f", v), x0-8, y, 1, 0.5)
	}
	dc.SetColor(hexColor(axisColor, 255))
	dc.DrawLine(x0, y0, x0, y1)
	dc.DrawLine(x0, y1, x1, y1)
	dc.Stroke()
}

func (r *Renderer) xFor(i, n int) float64 {
	x0, _, x1, _ := r.plotArea()
	if n <= 1 {
		return (x0 + x1) / 2
	}
	return x0 + float64(i)*(x1-x0)/float64(n-1)
}

func (r *Renderer) lines(dc *gg.Context, g assessment.GraphDescriptor, fill bool) {
	r.axes(dc)
	n := len(g.Labels)
	_, _, _, y1 := r.plotArea()
	for i, label := range g.Labels {
		dc.SetColor(hexColor(axisColor, 255))
		dc.DrawStringAnchored(label, r.xFor(i, n), y1+16, 0.5, 0.5)
	}
	for _, ds := range g.Datasets {
		if len(ds.Data) == 0 {
			continue
		}
		if fill {
			dc.MoveTo(r.xFor(0, n), y1)
			for i, v := range ds.Data {
				dc.LineTo(r.xFor(i, n), r.yFor(v))
			}
			dc.LineTo(r.xFor(len(ds.Data)-1, n), y1)
			dc.ClosePath()
			dc.SetColor(hexColor(ds.Color, areaAlpha))
			dc.Fill()
		}
		for i, v := range ds.Data {
			if i == 0 {
				dc.MoveTo(r.xFor(i, n), r.yFor(v))
			} else {
				dc.LineTo(r.xFor(i, n), r.yFor(v))
			}
		}
		dc.SetLineWidth(2.5)
		dc.SetColor(hexColor(ds.Color, 255))
		dc.Stroke()
		for i, v := range ds.Data {
			dc.DrawCircle(r.xFor(i, n), r.yFor(v), 3.5)
		}
		dc.Fill()
	}
}

func (r *Renderer) bars(dc *gg.Context, g assessment.GraphDescriptor) {
	r.axes(dc)
	if len(g.Datasets) == 0 || len(g.Labels) == 0 {
		return
	}
	x0, _, x1, y1 := r.plotArea()
	slot := (x1 - x0) / float64(len(g.Labels))
	data := g.Datasets[0].Data
	for i, label := range g.Labels {
		v := 0.0
		if i < len(data) {
			v = data[i]
		}
		c := g.Datasets[0].Color
		if i < len(g.Colors) {
			c = g.Colors[i]
		}
		left := x0 + float64(i)*slot + slot*0.15
		top := r.yFor(v)
		dc.SetColor(hexColor(c, 255))
		dc.DrawRectangle(left, top, slot*0.7, y1-top)
		dc.Fill()
		dc.SetColor(hexColor(textColor, 255))
		dc.DrawStringAnchored(fmt.Sprintf("%.1f%%", v), left+slot*0.35, top-10, 0.5, 0.5)
		dc.SetColor(hexColor(axisColor, 255))
		dc.DrawStringAnchored(strings.ReplaceAll(label, "_", " "), left+slot*0.35, y1+16, 0.5, 0.5)
	}
}

func (r *Renderer) radar(dc *gg.Context, g assessment.GraphDescriptor) {
	n := len(g.Labels)
	if n == 0 {
		return
	}
	cx, cy := float64(r.Width)/2, float64(r.Height)/2+margin/4
	radius := math.Min(float64(r.Width), float64(r.Height))/2 - margin
	point := func(i int, v float64) (float64, float64) {
		angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		d := radius * assessment.Clamp(v, 0, 100) / 100
		return cx + d*math.Cos(angle), cy + d*math.Sin(angle)
	}

	dc.SetLineWidth(1)
	dc.SetColor(hexColor(gridColor, 255))
	for ring := 20.0; ring <= 100; ring += 20 {
		for i := 0; i <= n; i++ {
			x, y := point(i%n, ring)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
	}
	for i, label := range g.Labels {
		x, y := point(i, 100)
		dc.SetColor(hexColor(gridColor, 255))
		dc.DrawLine(cx, cy, x, y)
		dc.Stroke()
		lx, ly := point(i, 112)
		dc.SetColor(hexColor(axisColor, 255))
		dc.DrawStringAnchored(label, lx, ly, 0.5, 0.5)
	}
	for _, ds := range g.Datasets {
		if len(ds.Data) == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			v := 0.0
			if i < len(ds.Data) {
				v = ds.Data[i]
			}
			x, y := point(i, v)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
		dc.SetColor(hexColor(ds.Color, areaAlpha))
		dc.FillPreserve()
		dc.SetLineWidth(2)
		dc.SetColor(hexColor(ds.Color, 255))
		dc.Stroke()
	}
}

func (r *Renderer) heatmap(dc *gg.Context, g assessment.GraphDescriptor) {
	n := len(g.Matrix)
	if n == 0 {
		return
	}
	x0, y0, x1, y1 := r.plotArea()
	x0 += margin
	cell := math.Min((x1-x0)/float64(n), (y1-y0)/float64(n))
	for i, row := range g.Matrix {
		for j, v := range row {
			x, y := x0+float64(j)*cell, y0+float64(i)*cell
			dc.SetColor(divergingColor(v))
			dc.DrawRectangle(x, y, cell, cell)
			dc.Fill()
			dc.SetColor(hexColor(textColor, 255))
			dc.DrawStringAnchored(fmt.Sprintf("%.2f", v), x+cell/2, y+cell/2, 0.5, 0.5)
		}
	}
	dc.SetColor(hexColor(axisColor, 255))
	for i, label := range g.Labels {
		if i >= n {
			break
		}
		dc.DrawStringAnchored(label, x0-8, y0+float64(i)*cell+cell/2, 1, 0.5)
	}
}

func (r *Renderer) legend(dc *gg.Context, g assessment.GraphDescriptor) {
	if g.Kind == assessment.ChartHeatmap || g.Kind == assessment.ChartDistribution {
		return
	}
	x := margin
	y := float64(r.Height) - margin/3
	for _, ds := range g.Datasets {
		dc.SetColor(hexColor(ds.Color, 255))
		dc.DrawRectangle(x, y-6, 12, 12)
		dc.Fill()
		dc.SetColor(hexColor(textColor, 255))
		dc.DrawStringAnchored(ds.Label, x+18, y, 0, 0.5)
		w, _ := dc.MeasureString(ds.Label)
		x += w + 40
	}
}

// divergingColor maps -1..1 onto red, white and blue.
func divergingColor(v float64) color.NRGBA {
	v = assessment.Clamp(v, -1, 1)
	lerp := func(a, b uint8, t float64) uint8 { return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t)) }
	white := color.NRGBA{R: 249, G: 250, B: 251, A: 255}
	if v < 0 {
		red := color.NRGBA{R: 220, G: 38, B: 38, A: 255}
		return color.NRGBA{R: lerp(white.R, red.R, -v), G: lerp(white.G, red.G, -v), B: lerp(white.B, red.B, -v), A: 255}
	}
	blue := color.NRGBA{R: 37, G: 99, B: 235, A: 255}
	return color.NRGBA{R: lerp(white.R, blue.R, v), G: lerp(white.G, blue.G, v), B: lerp(white.B, blue.B, v), A: 255}
}

// hexColor parses #RRGGBB, falling back to grey.
func hexColor(s string, alpha uint8) color.NRGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 3 {
		return color.NRGBA{R: 107, G: 114, B: 128, A: alpha}
	}
	return color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: alpha}
}
