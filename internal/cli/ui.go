package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/foamviz/signalviz/pkg/pipeline"
)

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

var (
	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconArrow   = "→"
)

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printResult summarizes a render: where it is, how it was framed and where
// it went.
func printResult(res *pipeline.Result) {
	if rec := res.Signal; rec != nil {
		printKeyValue("signal", StyleHighlight.Render(rec.ID.String()))
		printKeyValue("geohash", rec.Geohash)
		if !rec.MintTime.IsZero() {
			printKeyValue("minted", rec.MintTime.Format(time.DateOnly))
		}
		if !rec.BurnTime.IsZero() {
			printKeyValue("burnt", rec.BurnTime.Format(time.DateOnly))
		}
	}
	printKeyValue("position", fmt.Sprintf("%.6f, %.6f", res.Coordinates.Lat, res.Coordinates.Lon))
	printStats(res)
	if res.Path != "" {
		printFile(res.Path)
	}
}

// printStats prints the render geometry on a single dim line.
func printStats(res *pipeline.Result) {
	parts := []string{
		fmt.Sprintf("%.0f m", res.Spec.RadiusMeters),
		fmt.Sprintf("zoom %.2f", res.Spec.Zoom),
		fmt.Sprintf("%.0f px", res.Spec.PixelRadius),
		(res.Stats.ResolveTime + res.Stats.RenderTime).Round(time.Millisecond).String(),
	}
	fmt.Println("  " + StyleDim.Render(strings.Join(parts, " · ")))
}
