package colour

import (
	"fmt"
	"strings"
)

// ANSI escape codes for terminal colours.
const (
	ansiReset    = "\033[0m"
	ansiFgPrefix = "\033[38;2;"
	ansiBgPrefix = "\033[48;2;"
	ansiSuffix   = "m"
	defaultWidth = 8
)

// DisableColourOutput turns every preview into plain text.
var DisableColourOutput = false

// ColourPreview returns a solid ANSI truecolour block for c.
// Fully transparent colours render as a dotted block since a terminal cannot show alpha.
func ColourPreview(c RGBA, width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	if DisableColourOutput {
		return strings.Repeat(" ", width)
	}
	if c.A == 0 {
		return strings.Repeat("·", width)
	}

	bg := fmt.Sprintf("%s%d;%d;%d%s", ansiBgPrefix, c.R, c.G, c.B, ansiSuffix)
	return bg + strings.Repeat(" ", width) + ansiReset
}

// ColourPreviewWithText returns a colour block with centred text in a contrasting colour.
func ColourPreviewWithText(c RGBA, text string, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	displayText := text
	if len(text) > width {
		displayText = text[:width]
	} else if len(text) < width {
		padding := (width - len(text)) / 2
		displayText = strings.Repeat(" ", padding) + text + strings.Repeat(" ", width-len(text)-padding)
	}
	if DisableColourOutput {
		return displayText
	}

	var fg uint8 = 255
	if luminance(c) > 0.5 {
		fg = 0
	}
	bg := fmt.Sprintf("%s%d;%d;%d%s", ansiBgPrefix, c.R, c.G, c.B, ansiSuffix)
	fgColour := fmt.Sprintf("%s%d;%d;%d%s", ansiFgPrefix, fg, fg, fg, ansiSuffix)

	return bg + fgColour + displayText + ansiReset
}

// RampPreview renders colours side by side, each cellWidth characters wide.
func RampPreview(colours []RGBA, cellWidth int) string {
	var b strings.Builder
	for _, c := range colours {
		b.WriteString(ColourPreview(c, cellWidth))
	}
	return b.String()
}

// luminance is a cheap relative luminance estimate used only to pick text colour.
func luminance(c RGBA) float64 {
	return (0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)) / 255.0
}
