// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package term

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
)

// Palette, as ANSI 256 color indices.
var (
	colorPositive  = lipgloss.Color("2")
	colorNegative  = lipgloss.Color("1")
	colorSecondary = lipgloss.Color("5")
	colorTertiary  = lipgloss.Color("6")
	colorHighlight = lipgloss.Color("14")
	colorDim       = lipgloss.Color("245")
	colorBadgeText = lipgloss.Color("0")
)

func (t *Terminal) style() lipgloss.Style {
	return t.renderer.NewStyle()
}

func (t *Terminal) Bold(value any) string {
	return t.style().Bold(true).Render(fmt.Sprint(value))
}

func (t *Terminal) Italic(value any) string {
	return t.style().Italic(true).Render(fmt.Sprint(value))
}

func (t *Terminal) Dim(value any) string {
	return t.style().Foreground(colorDim).Render(fmt.Sprint(value))
}

func (t *Terminal) Positive(value any) string {
	return t.style().Foreground(colorPositive).Render(fmt.Sprint(value))
}

func (t *Terminal) Negative(value any) string {
	return t.style().Foreground(colorNegative).Render(fmt.Sprint(value))
}

func (t *Terminal) Secondary(value any) string {
	return t.style().Foreground(colorSecondary).Render(fmt.Sprint(value))
}

func (t *Terminal) Tertiary(value any) string {
	return t.style().Foreground(colorTertiary).Render(fmt.Sprint(value))
}

func (t *Terminal) Highlight(value any) string {
	return t.style().Foreground(colorHighlight).Bold(true).Render(fmt.Sprint(value))
}

// BadgePositive renders text as a label on a green background. Without
// colors the label is bracketed instead.
func (t *Terminal) BadgePositive(text string) string {
	return t.badge(text, colorPositive)
}

// BadgeSecondary renders text as a label on a magenta background.
func (t *Terminal) BadgeSecondary(text string) string {
	return t.badge(text, colorSecondary)
}

func (t *Terminal) badge(text string, background lipgloss.Color) string {
	if !t.colored() {
		return "[" + text + "]"
	}
	return t.style().
		Foreground(colorBadgeText).
		Background(background).
		Padding(0, 1).
		Render(text)
}

func (t *Terminal) colored() bool {
	return t.profile != termenv.Ascii
}

func relativeTime(then, now time.Time) string {
	if now.Sub(then).Abs() < time.Second {
		return "now"
	}
	return humanize.RelTime(then, now, "ago", "from now")
}
