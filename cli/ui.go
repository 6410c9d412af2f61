package cli

import (
	"fmt"
	"math"
	"strings"

	"airflow/metrics"
	"airflow/model"
	"airflow/service"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	StyleError   = lipgloss.NewStyle().Foreground(colorRed)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)

	styleHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		}).
		Headers(headers...)
}

func fanTable(fans []model.FanModel) string {
	t := newTable("Model", "Power (W)", "Airflow (CFM)", "Radius (m)", "Noise", "Mounting")
	for _, f := range fans {
		t.Row(f.Name, fmt.Sprintf("%g", f.Wattage), fmt.Sprintf("%g", f.CFM), fmt.Sprintf("%g", f.Radius), f.NoiseLevel, f.Mounting)
	}
	return t.String()
}

func applicationTable(apps []model.Application) string {
	t := newTable("Application", "Primary", "Secondary", "Min ACH")
	for _, a := range apps {
		t.Row(a.Name, a.PrimaryFan, a.SecondaryFan, fmt.Sprintf("%g", a.MinACH))
	}
	return t.String()
}

func renderReport(ev *service.Evaluation) string {
	m := ev.Metrics
	status := StyleSuccess.Render("COMPLIANT")
	if !m.Compliant {
		status = StyleError.Render("NON-COMPLIANT")
	}

	t := newTable("Metric", "Value").Rows(
		[]string{"Fan model", ev.Fan.Name},
		[]string{"Fans placed", fmt.Sprintf("%d / %d", m.FansPlaced, m.FansRequested)},
		[]string{"Net area", fmt.Sprintf("%.1f m²", m.NetArea)},
		[]string{"Volume", fmt.Sprintf("%.0f m³ (%.0f ft³)", m.Volume, m.VolumeFt3)},
		[]string{"Total airflow", fmt.Sprintf("%.0f CFM", m.TotalCFM)},
		[]string{"ACH", fmt.Sprintf("%.2f (target %g)", m.ACH, m.TargetACH)},
		[]string{"Status", status},
		[]string{"Avg velocity", fmt.Sprintf("%.3f m/s", m.Velocity.Average)},
		[]string{"Peak velocity", fmt.Sprintf("%.3f m/s", m.Velocity.Peak)},
		[]string{"Coverage", fmt.Sprintf("%.1f%% > %g m/s", m.Coverage, m.CoverageThreshold)},
		[]string{"Flow bands", fmt.Sprintf("low %.0f%% / medium %.0f%% / high %.0f%%", m.Bands.Low, m.Bands.Medium, m.Bands.High)},
		[]string{"Monthly energy", fmt.Sprintf("%.0f kWh, $%.2f", m.Energy.MonthlyKWh, m.Energy.MonthlyCost)},
	)
	if !m.Compliant {
		t.Row("Additional fans", fmt.Sprintf("%d", m.AdditionalFansNeeded))
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Airflow evaluation"))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	for _, r := range ev.Recommendations {
		b.WriteString(recommendationLine(r))
		b.WriteString("\n")
	}
	return b.String()
}

func recommendationLine(r metrics.Recommendation) string {
	switch r.Level {
	case metrics.LevelCritical:
		return StyleError.Render("✗ ") + r.Text
	case metrics.LevelWarning, metrics.LevelCost:
		return StyleWarning.Render("! ") + r.Text
	case metrics.LevelGood:
		return StyleSuccess.Render("✓ ") + r.Text
	default:
		return StyleDim.Render("› ") + r.Text
	}
}

// 速度由低到高
const shades = " .:-=+*#%@"

// heatmap downsamples the field to at most maxCols columns. Terminal cells are
// about twice as tall as wide, so rows are halved. The far end of the room
// (largest y) is printed first; '~' marks cells outside the floor plan and 'F'
// a placed fan.
func heatmap(ev *service.Evaluation, maxCols int) []string {
	nx, ny := ev.Grid.Nx, ev.Grid.Ny
	if nx == 0 || ny == 0 {
		return nil
	}
	cols := nx
	if maxCols > 0 && cols > maxCols {
		cols = maxCols
	}
	rows := int(math.Round(float64(ny) * float64(cols) / float64(nx) / 2))
	if rows < 1 {
		rows = 1
	}

	peak := ev.Metrics.Velocity.Peak
	grid := make([][]byte, rows)
	for r := range grid {
		grid[r] = make([]byte, cols)
		j := (rows - 1 - r) * ny / rows
		for c := range grid[r] {
			i := c * nx / cols
			if !ev.Mask[j][i] {
				grid[r][c] = '~'
				continue
			}
			level := 0
			if peak > 0 {
				level = int(ev.Field[j][i] / peak * float64(len(shades)-1))
			}
			if level > len(shades)-1 {
				level = len(shades) - 1
			}
			grid[r][c] = shades[level]
		}
	}

	w, l := ev.Request.Room.Width, ev.Request.Room.Length
	for _, f := range ev.Fans {
		if !f.Placed {
			continue
		}
		c := clampIndex(int(f.X/w*float64(cols)), cols)
		r := rows - 1 - clampIndex(int(f.Y/l*float64(rows)), rows)
		grid[r][c] = 'F'
	}

	lines := make([]string, rows)
	for r := range grid {
		lines[r] = string(grid[r])
	}
	return lines
}

func clampIndex(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func renderHeatmap(ev *service.Evaluation, maxCols int) string {
	lines := heatmap(ev, maxCols)
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Velocity field"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %dx%d grid, peak %.2f m/s", ev.Grid.Nx, ev.Grid.Ny, ev.Metrics.Velocity.Peak)))
	b.WriteString("\n")
	border := "+" + strings.Repeat("-", len(lines[0])) + "+"
	b.WriteString(border + "\n")
	for _, line := range lines {
		b.WriteString("|" + line + "|\n")
	}
	b.WriteString(border)
	return b.String()
}
