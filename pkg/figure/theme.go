package figure

// Theme carries the presentation settings applied during normalisation.
type Theme struct {
	// Palette assigns series (or pie slice) colours in order, cycling.
	Palette []string
}

// DefaultPalette is used when a theme has no palette.
var DefaultPalette = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// DefaultTheme returns a theme with DefaultPalette.
func DefaultTheme() Theme {
	return Theme{Palette: DefaultPalette}
}

func (t Theme) color(i int) string {
	p := t.Palette
	if len(p) == 0 {
		p = DefaultPalette
	}
	return p[i%len(p)]
}

// apply colours every series of fig.
func (t Theme) apply(fig *Figure) {
	switch {
	case fig.Axis != nil:
		for i := range fig.Axis.Series {
			fig.Axis.Series[i].Color = t.color(i)
		}
	case fig.Pie != nil:
		for i := range fig.Pie.Slices {
			fig.Pie.Slices[i].Color = t.color(i)
		}
	case fig.Scatter != nil:
		for i := range fig.Scatter.Series {
			fig.Scatter.Series[i].Color = t.color(i)
		}
	case fig.Radar != nil:
		for i := range fig.Radar.Series {
			fig.Radar.Series[i].Color = t.color(i)
		}
	}
}
