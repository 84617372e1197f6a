package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/kamilpajak/leafguard/internal/remedy"
	"github.com/kamilpajak/leafguard/internal/report"
	"github.com/kamilpajak/leafguard/pkg/models"
)

// resultJSON is the --json output.
type resultJSON struct {
	PredictedClass string            `json:"predicted_class"`
	DisplayName    string            `json:"display_name"`
	Confidence     float64           `json:"confidence"`
	Percent        string            `json:"percent"`
	Tier           models.Confidence `json:"tier"`
	Remedy         string            `json:"remedy"`
	Sections       []remedy.Section  `json:"sections"`
}

func newResultJSON(p *models.Prediction) resultJSON {
	sections := remedy.Format(p.Remedy)
	if sections == nil {
		sections = []remedy.Section{}
	}
	return resultJSON{
		PredictedClass: p.PredictedClass,
		DisplayName:    report.DisplayName(p.PredictedClass),
		Confidence:     p.Confidence,
		Percent:        p.Percent(),
		Tier:           p.Tier(),
		Remedy:         p.Remedy,
		Sections:       sections,
	}
}

func printResult(stderr, stdout io.Writer, p *models.Prediction) {
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	fmt.Fprintln(stderr)
	_, _ = dim.Fprintln(stderr, "  "+strings.Repeat("━", 50))
	printConfidenceBar(stderr, p.Confidence)
	fmt.Fprintln(stderr)

	_, _ = bold.Fprintln(stdout, "DETECTED: "+report.DisplayName(p.PredictedClass))
	fmt.Fprintln(stdout)
	printRemedy(stdout, remedy.Format(p.Remedy))
}

func printRemedy(w io.Writer, sections []remedy.Section) {
	if len(sections) == 0 {
		_, _ = color.New(color.FgHiBlack).Fprintln(w, "No treatment advice available.")
		return
	}

	bold := color.New(color.Bold)
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if s.Titled {
			_, _ = bold.Fprintf(w, "%s %s\n", s.Icon, s.Title)
		}
		if s.Body != "" {
			fmt.Fprintln(w, s.Body)
		}
	}
}

func printConfidenceBar(w io.Writer, confidence float64) {
	const barWidth = 24
	filled := int(confidence * barWidth)
	filled = max(0, min(filled, barWidth))

	tier := models.Tier(confidence)
	var barColor *color.Color
	switch tier {
	case models.ConfidenceHigh:
		barColor = color.New(color.FgGreen)
	case models.ConfidenceMedium:
		barColor = color.New(color.FgYellow)
	default:
		barColor = color.New(color.FgRed)
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(w, "  Confidence: %s ", models.Percent(confidence))
	_, _ = barColor.Fprint(w, bar)
	dim := color.New(color.FgHiBlack)
	_, _ = dim.Fprintf(w, " (%s)\n", strings.ToLower(string(tier)))
}
