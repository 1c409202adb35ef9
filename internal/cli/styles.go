package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	appName    = "Flipbook 📖"
	appTagline = "Play numbered image sequences and animation lists in the terminal, with a persistent frame cache."
)

var (
	nameStyle = lipgloss.NewStyle().Bold(true).Foreground(InkCyan)

	labelStyle = lipgloss.NewStyle().Foreground(Graphite)
	valueStyle = lipgloss.NewStyle().Bold(true).Foreground(Paper)

	okMark   = lipgloss.NewStyle().Bold(true).Foreground(InkGreen).Render("✓")
	warnMark = lipgloss.NewStyle().Bold(true).Foreground(InkAmber).Render("!")
	errMark  = lipgloss.NewStyle().Bold(true).Foreground(InkCoral).Render("✗")

	summaryTitle = lipgloss.NewStyle().Bold(true).Foreground(InkGreen)
	summaryBox   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(InkBlue).
			Padding(0, 2).
			MarginTop(1)
)

// PrintVersion prints the name and build version
func PrintVersion(version string) {
	fmt.Printf("%s %s\n", nameStyle.Render(appName), valueStyle.Render(version))
}

// PrintError prints to stderr
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errMark, message)
}

func PrintWarning(message string) {
	fmt.Printf("%s %s\n", warnMark, message)
}

func PrintSuccess(message string) {
	fmt.Printf("%s %s\n", okMark, message)
}

// PrintInfo prints a single key/value line
func PrintInfo(key, value string) {
	fmt.Printf("  %s %s\n", labelStyle.Render(key+":"), valueStyle.Render(value))
}

// FormatDuration rounds to milliseconds below a second, tenths above
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// FormatRate formats frames over d as frames per second
func FormatRate(frames int64, d time.Duration) string {
	if d <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f fps", float64(frames)/d.Seconds())
}

// FormatBytes uses binary units
func FormatBytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v, i := float64(n)/1024, 0
	for v >= 1024 && i < 5 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %cB", v, "KMGTPE"[i])
}

// SummaryRow is one key/value line of a summary box
type SummaryRow struct {
	Key   string
	Value string
}

// RenderSummary lays out a titled block of aligned key/value rows
func RenderSummary(title string, rows []SummaryRow) string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.Key))
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, summaryTitle.Render("✓ "+title))
	for _, r := range rows {
		key := labelStyle.Render(fmt.Sprintf("%-*s", width+1, r.Key+":"))
		lines = append(lines, key+" "+valueStyle.Render(r.Value))
	}
	return strings.Join(lines, "\n")
}

// PrintSummary prints RenderSummary inside a rounded box
func PrintSummary(title string, rows []SummaryRow) {
	fmt.Println(summaryBox.Render(RenderSummary(title, rows)))
}
