// Package charts renders trend sequences as embeddable SVG data URIs.
package charts

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"

	"salesiq/internal/models"
)

const (
	width   = 520
	height  = 300
	padLeft = 70
	padTop  = 40
	padBot  = 50
	padRt   = 20
)

// RenderLine draws a simple line chart over the points and returns it as
// a data:image/svg+xml;base64 URI. An empty series yields an empty
// string so callers can skip the section.
func RenderLine(points []models.TrendPoint, title string) string {
	if len(points) == 0 {
		return ""
	}

	minV, maxV := points[0].Value, points[0].Value
	for _, p := range points {
		if p.Value < minV {
			minV = p.Value
		}
		if p.Value > maxV {
			maxV = p.Value
		}
	}
	if minV == maxV {
		// Flat series still gets a visible mid-height line.
		minV, maxV = minV-1, maxV+1
	}

	plotW := float64(width - padLeft - padRt)
	plotH := float64(height - padTop - padBot)

	x := func(i int) float64 {
		if len(points) == 1 {
			return padLeft + plotW/2
		}
		return padLeft + plotW*float64(i)/float64(len(points)-1)
	}
	y := func(v float64) float64 {
		return padTop + plotH*(1-(v-minV)/(maxV-minV))
	}

	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = fmt.Sprintf("%.1f,%.1f", x(i), y(p.Value))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#ffffff"/>`, width, height)
	fmt.Fprintf(&b, `<text x="%d" y="24" font-family="sans-serif" font-size="15" text-anchor="middle">%s</text>`, width/2, html.EscapeString(title))

	// Axes
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#888"/>`, padLeft, padTop, padLeft, height-padBot)
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#888"/>`, padLeft, height-padBot, width-padRt, height-padBot)
	fmt.Fprintf(&b, `<text x="%d" y="%.1f" font-family="sans-serif" font-size="10" text-anchor="end">%s</text>`, padLeft-6, y(maxV)+4, formatValue(maxV))
	fmt.Fprintf(&b, `<text x="%d" y="%.1f" font-family="sans-serif" font-size="10" text-anchor="end">%s</text>`, padLeft-6, y(minV)+4, formatValue(minV))

	fmt.Fprintf(&b, `<polyline fill="none" stroke="#2563eb" stroke-width="2" points="%s"/>`, strings.Join(coords, " "))
	for i, p := range points {
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="3" fill="#2563eb"/>`, x(i), y(p.Value))
	}

	// First and last bucket labels keep the axis readable at any length.
	first, last := points[0], points[len(points)-1]
	fmt.Fprintf(&b, `<text x="%.1f" y="%d" font-family="sans-serif" font-size="10" text-anchor="middle">%s</text>`, x(0), height-padBot+16, html.EscapeString(first.Bucket))
	if len(points) > 1 {
		fmt.Fprintf(&b, `<text x="%.1f" y="%d" font-family="sans-serif" font-size="10" text-anchor="middle">%s</text>`, x(len(points)-1), height-padBot+16, html.EscapeString(last.Bucket))
	}
	b.WriteString(`</svg>`)

	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(b.String()))
}

func formatValue(v float64) string {
	switch {
	case v >= 1e6 || v <= -1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3 || v <= -1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}
