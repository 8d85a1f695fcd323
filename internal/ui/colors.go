package ui

import "github.com/charmbracelet/lipgloss"

var styles = NewPalette("#FF8000", "#00E054", "#40BCF4", "#FF4F4F", "#626262")

// Palette is a small stylesheet built from named [lipgloss.Style] fields.
type Palette struct {
	title  lipgloss.Style
	ownerA lipgloss.Style
	ownerB lipgloss.Style
	err    lipgloss.Style
	help   lipgloss.Style
	label  lipgloss.Style
}

// NewPalette builds a Palette from hex colors for the title, each member and errors, plus a muted help color.
func NewPalette(title, a, b, errColor, muted string) *Palette {
	return &Palette{
		title:  NewBold(title).MarginBottom(1),
		ownerA: NewBold(a),
		ownerB: NewBold(b),
		err:    NewBold(errColor),
		help:   NewEm(muted),
		label:  NewStyle(muted),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
