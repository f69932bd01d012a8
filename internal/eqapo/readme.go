package eqapo

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/mvirta/eqcraft/pkg/models"
)

// ReadmeData carries everything needed to render a model readme. GraphicEQ
// and Filters may be empty independently; only the sections with data are
// written.
type ReadmeData struct {
	Model        string
	Equalization []float64
	GraphicEQ    string
	ParametricEQ []float64
	Filters      []models.Filter
}

// Readme renders the per-model README.md with Equalizer APO usage
// instructions for the generated configs.
func Readme(data ReadmeData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", data.Model)

	if data.GraphicEQ != "" {
		preamp := GraphicPreamp(data.Equalization)
		fmt.Fprintf(&b, `
### EqualizerAPO
In case of using EqualizerAPO without any GUI, replace `+"`C:\\Program Files\\EqualizerAPO\\config\\config.txt`"+`
with:
`+"```"+`
Preamp: %.1fdB
%s
`+"```"+`

### HeSuVi
In case of using HeSuVi, replace `+"`C:\\Program Files\\EqualizerAPO\\config\\HeSuVi\\eq.txt`"+` and omit `+"`Preamp: %.1fdB`"+` and instead set Global volume in the UI for both channels to **%d**
`, preamp, data.GraphicEQ, preamp, int(math.Round(preamp*10)))
	}

	if len(data.Filters) > 0 {
		preamp := ParametricPreamp(data.ParametricEQ)
		fmt.Fprintf(&b, `
### Peace
In case of using Peace, click *Import* in Peace GUI and select `+"`%s ParametricEQ.txt`"+`.

### Parametric EQs
In case of using other parametric equalizer, apply preamp of **%.1fdB** and build filters manually with
these parameters:

%s
`, data.Model, preamp, filtersTable(data.Filters))
	}

	return strings.TrimSpace(b.String()) + "\n"
}

// WriteReadme renders the model readme to path.
func WriteReadme(path string, data ReadmeData) error {
	if err := os.WriteFile(path, []byte(Readme(data)), 0644); err != nil {
		return fmt.Errorf("failed to write readme: %w", err)
	}
	return nil
}

// filtersTable renders filters as a Markdown table with Type, Fc, Q and Gain
// columns.
func filtersTable(filters []models.Filter) string {
	rows := make([][]string, len(filters))
	for i, flt := range filters {
		rows[i] = []string{
			"Peaking",
			fmt.Sprintf("%.0f Hz", flt.Fc),
			fmt.Sprintf("%.2f", flt.Q),
			fmt.Sprintf("%.1f dB", flt.Gain),
		}
	}
	return markdownTable([]string{"Type", "Fc", "Q", "Gain"}, rows)
}

func markdownTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i, cell := range cells {
			fmt.Fprintf(&b, " %-*s |", widths[i], cell)
		}
		b.WriteString("\n")
	}
	writeRow(headers)
	b.WriteString("|")
	for _, w := range widths {
		b.WriteString(":" + strings.Repeat("-", w+1) + "|")
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RunReadme renders the batch run readme listing the parameters the results
// were generated with. Params come pre-formatted as flag values so path
// quoting and numeric formatting stay in the caller's hands.
func RunReadme(timestamp time.Time, params []RunParam) string {
	lines := []string{fmt.Sprintf("# Run %s", timestamp.Format("2006-01-02T15:04:05.999999"))}
	lines = append(lines, "There results were obtained with parameters:")
	for _, p := range params {
		lines = append(lines, fmt.Sprintf("* `--%s=%s`", p.Name, p.Value))
	}
	return strings.Join(lines, "\n")
}

// RunParam is a single generation flag captured in the run readme.
type RunParam struct {
	Name  string
	Value string
}
