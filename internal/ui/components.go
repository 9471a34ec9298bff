package ui

import (
	"fmt"
	"strings"

	"github.com/olivier-w/surfacetest/internal/resource"
)

func renderProgressBar(ratio float64, width int) string {
	if width < 10 {
		width = 10
	}
	barWidth := width - 2 // leave some margin

	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	filled := int(ratio * float64(barWidth))
	return strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
}

func renderDescriptor(d *resource.Descriptor) string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("fd %d  offset %d  length %d", d.FD, d.Offset, d.Length)
}

func spaces(n int) string {
	if n < 0 {
		n = 0
	}
	return strings.Repeat(" ", n)
}
