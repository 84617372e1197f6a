package dashboard

import (
	"github.com/kamilpajak/leafguard/internal/remedy"
	"github.com/kamilpajak/leafguard/internal/report"
	"github.com/kamilpajak/leafguard/internal/workflow"
	"github.com/kamilpajak/leafguard/pkg/models"
)

// stateView is the JSON form of a workflow state sent to the page.
type stateView struct {
	Phase      workflow.Phase `json:"phase"`
	Generation uint64         `json:"generation"`
	CanAnalyze bool           `json:"can_analyze"`
	Image      *imageView     `json:"image,omitempty"`
	Result     *resultView    `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
}

type imageView struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Size      int    `json:"size"`
	Preview   string `json:"preview"`
}

type resultView struct {
	PredictedClass string            `json:"predicted_class"`
	DisplayName    string            `json:"display_name"`
	Confidence     float64           `json:"confidence"`
	Percent        string            `json:"percent"`
	Tier           models.Confidence `json:"tier"`
	Remedy         string            `json:"remedy"`
	Sections       []remedy.Section  `json:"sections"`
}

func newStateView(s workflow.State) stateView {
	v := stateView{
		Phase:      s.Phase,
		Generation: s.Generation,
		CanAnalyze: s.Image != nil && (s.Phase == workflow.PhaseSelected || s.Phase == workflow.PhaseFailed),
		Error:      s.Err,
	}
	if s.Image != nil {
		v.Image = &imageView{
			Name:      s.Image.Name,
			MediaType: s.Image.MediaType,
			Size:      len(s.Image.Data),
			Preview:   s.Image.Preview,
		}
	}
	if p := s.Result; p != nil {
		sections := remedy.Format(p.Remedy)
		if sections == nil {
			sections = []remedy.Section{}
		}
		v.Result = &resultView{
			PredictedClass: p.PredictedClass,
			DisplayName:    report.DisplayName(p.PredictedClass),
			Confidence:     p.Confidence,
			Percent:        p.Percent(),
			Tier:           p.Tier(),
			Remedy:         p.Remedy,
			Sections:       sections,
		}
	}
	return v
}
