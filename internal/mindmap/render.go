package mindmap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"

	"github.com/PabloGalante/meeting-engine/internal/domain"
)

const (
	canvasWidth  = 1200.0
	rowHeight    = 140.0
	nodeRadius   = 26.0
	labelMaxRune = 24
)

// ExportSVG renders mm as a layered tree: no third-party graph-layout
// library appears anywhere in the pack, so this is a small self-contained
// renderer built on plain string formatting. Correctness bar per §6.4: every
// node and edge appears once, and the root is the outermost (topmost) node.
func ExportSVG(mm *domain.MindMap) ([]byte, error) {
	positions, maxDepth := layout(mm, canvasWidth, rowHeight)
	height := rowHeight*float64(maxDepth+1) + rowHeight/2

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		int(canvasWidth), int(height), int(canvasWidth), int(height))
	b.WriteString(`<rect width="100%" height="100%" fill="white"/>` + "\n")

	for _, e := range edges(mm) {
		from, to := positions[e[0]], positions[e[1]]
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#888" stroke-width="1.5"/>`+"\n",
			from.x, from.y, to.x, to.y)
	}

	for id, node := range mm.Nodes {
		pos, ok := positions[id]
		if !ok {
			continue
		}
		radius := nodeRadius
		fill := "#eef"
		if id == mm.RootNode {
			radius = nodeRadius * 1.4
			fill = "#dde"
		}
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" stroke="#333" stroke-width="1.5"/>`+"\n",
			pos.x, pos.y, radius, fill)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="12" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
			pos.x, pos.y, escapeXML(truncateLabel(node.Content)))
	}

	b.WriteString("</svg>\n")
	return []byte(b.String()), nil
}

// ExportPNG rasterizes the same layout used by ExportSVG. It draws only
// shapes, not text: a font-rendering dependency appears nowhere in the pack,
// and §6.4's PNG correctness bar ("every node and edge appears once, root
// outermost") does not require labels.
func ExportPNG(mm *domain.MindMap) ([]byte, error) {
	positions, maxDepth := layout(mm, canvasWidth, rowHeight)
	height := int(rowHeight*float64(maxDepth+1) + rowHeight/2)

	img := image.NewNRGBA(image.Rect(0, 0, int(canvasWidth), height))
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < int(canvasWidth); x++ {
			img.Set(x, y, white)
		}
	}

	black := color.NRGBA{R: 30, G: 30, B: 30, A: 255}
	for _, e := range edges(mm) {
		from, to := positions[e[0]], positions[e[1]]
		drawLine(img, from.x, from.y, to.x, to.y, black)
	}
	for id := range mm.Nodes {
		pos, ok := positions[id]
		if !ok {
			continue
		}
		radius := nodeRadius
		fillColor := color.NRGBA{R: 220, G: 220, B: 255, A: 255}
		if id == mm.RootNode {
			radius = nodeRadius * 1.4
			fillColor = color.NRGBA{R: 200, G: 200, B: 235, A: 255}
		}
		drawCircle(img, pos.x, pos.y, radius, fillColor, black)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawCircle(img *image.NRGBA, cx, cy, r float64, fill, stroke color.NRGBA) {
	bounds := img.Bounds()
	for y := int(cy - r - 1); y <= int(cy+r+1); y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := int(cx - r - 1); x <= int(cx+r+1); x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			switch {
			case d <= r-1:
				img.Set(x, y, fill)
			case d <= r+1:
				img.Set(x, y, stroke)
			}
		}
	}
}

// drawLine uses Bresenham's algorithm over floating-point endpoints.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 float64, c color.NRGBA) {
	dx := math.Abs(x1 - x0)
	dy := -math.Abs(y1 - y0)
	sx, sy := 1.0, 1.0
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	x, y := x0, y0
	bounds := img.Bounds()
	for {
		if int(x) >= bounds.Min.X && int(x) < bounds.Max.X && int(y) >= bounds.Min.Y && int(y) < bounds.Max.Y {
			img.Set(int(x), int(y), c)
		}
		if math.Abs(x-x1) < 1 && math.Abs(y-y1) < 1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func truncateLabel(s string) string {
	runes := []rune(s)
	if len(runes) <= labelMaxRune {
		return s
	}
	return string(runes[:labelMaxRune-1]) + "…"
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
