// Package report renders a prediction as a printable HTML page.
package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/kamilpajak/leafguard/internal/remedy"
	"github.com/kamilpajak/leafguard/pkg/models"
)

//go:embed report.html.tmpl
var reportTemplate string

var tmpl = template.Must(template.New("report").Parse(reportTemplate))

type view struct {
	Disease   string
	Percent   string
	Width     string
	Tier      string
	Sections  []remedy.Section
	Generated string
}

// HTML renders p as a standalone HTML document.
func HTML(p *models.Prediction, generated time.Time) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("no prediction to render")
	}
	v := view{
		Disease:   DisplayName(p.PredictedClass),
		Percent:   p.Percent(),
		Width:     strings.TrimSuffix(p.Percent(), "%"),
		Tier:      strings.ToLower(string(p.Tier())),
		Sections:  remedy.Format(p.Remedy),
		Generated: generated.Format("2006-01-02 15:04"),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

// DisplayName turns dataset labels like "Tomato___Late_blight" into
// "Tomato - Late blight". Other names are returned unchanged.
func DisplayName(class string) string {
	plant, disease, ok := strings.Cut(class, "___")
	if !ok {
		return class
	}
	clean := func(s string) string {
		return strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
	}
	return clean(plant) + " - " + clean(disease)
}
