// Package predict reconstructs the training-time feature pipeline for new
// raw records and turns trained artifacts into retention predictions with
// qualitative durability assessments.
package predict

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/duralab/frpdur/internal/artifact"
	"github.com/duralab/frpdur/internal/feature"
	"github.com/duralab/frpdur/internal/model"
	"github.com/duralab/frpdur/internal/record"
)

// Durability band labels in descending order.
const (
	BandExcellent = "Excellent"
	BandGood      = "Good"
	BandFair      = "Fair"
	BandPoor      = "Poor"
	BandVeryPoor  = "Very Poor"
)

// Result is one prediction with its qualitative assessment. Degraded marks
// results produced by the lower-confidence fallback path.
type Result struct {
	Title          string  `json:"title,omitempty"`
	Prediction     float64 `json:"prediction"`
	Band           string  `json:"band"`
	Recommendation string  `json:"recommendation"`
	Degraded       bool    `json:"degraded,omitempty"`
}

// Band maps a retention prediction to its durability band.
func Band(prediction float64) string {
	switch {
	case prediction >= 0.9:
		return BandExcellent
	case prediction >= 0.8:
		return BandGood
	case prediction >= 0.7:
		return BandFair
	case prediction >= 0.6:
		return BandPoor
	default:
		return BandVeryPoor
	}
}

// Recommendation returns the advice string for a band.
func Recommendation(band string) string {
	switch band {
	case BandExcellent:
		return "Material shows excellent durability characteristics"
	case BandGood:
		return "Material has good durability, suitable for most applications"
	case BandFair:
		return "Material durability is acceptable, monitor performance"
	case BandPoor:
		return "Material shows reduced durability, consider alternatives"
	default:
		return "Material durability is significantly compromised"
	}
}

// Predictor applies a stored artifact to new raw records. It reruns the
// exact derivation pipeline used at training time; only the row-retention
// filtering is skipped, since that is a training concern.
type Predictor struct {
	art    *artifact.Artifact
	pred   model.Predictor
	engine *feature.Engine
	logger *slog.Logger
}

// New builds a predictor from a stored artifact. It fails when the artifact
// expects features the derivation engine cannot produce, naming them.
func New(art *artifact.Artifact, logger *slog.Logger) (*Predictor, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pred, err := art.Predictor()
	if err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", art.ID, err)
	}

	var unknown []string
	for _, col := range art.FeatureColumns {
		if !feature.IsCanonical(col) {
			unknown = append(unknown, col)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("artifact %s expects underivable features: %s",
			art.ID, strings.Join(unknown, ", "))
	}

	return &Predictor{
		art:    art,
		pred:   pred,
		engine: feature.NewEngine(feature.Config{Logger: logger}),
		logger: logger,
	}, nil
}

// Artifact returns the artifact backing this predictor.
func (p *Predictor) Artifact() *artifact.Artifact { return p.art }

// Predict derives the canonical features for one raw record and returns the
// retention prediction with its durability assessment. A record whose
// derived vector lacks an expected feature is rejected with the missing
// features named; the fallback path must be invoked explicitly instead.
func (p *Predictor) Predict(r record.Record) (*Result, error) {
	vec := p.engine.DeriveAll([]record.Record{r})[0]
	row, missing := p.row(vec)
	if len(missing) > 0 {
		return nil, &MissingFeaturesError{Title: vec.Title, Features: missing}
	}

	value, err := p.pred.Predict(row)
	if err != nil {
		return nil, fmt.Errorf("prediction failed: %w", err)
	}
	return p.result(vec.Title, value, false), nil
}

// PredictBatch predicts every record, returning results aligned to input
// order. Any incomplete record fails the whole batch.
func (p *Predictor) PredictBatch(records []record.Record) ([]*Result, error) {
	vectors := p.engine.DeriveAll(records)

	out := make([]*Result, len(vectors))
	for i, vec := range vectors {
		row, missing := p.row(vec)
		if len(missing) > 0 {
			return nil, fmt.Errorf("row %d: %w", i, &MissingFeaturesError{Title: vec.Title, Features: missing})
		}
		value, err := p.pred.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("failed to predict row %d: %w", i, err)
		}
		out[i] = p.result(vec.Title, value, false)
	}
	return out, nil
}

// MissingFeaturesError reports the expected features a record failed to
// supply, by canonical name.
type MissingFeaturesError struct {
	Title    string
	Features []string
}

func (e *MissingFeaturesError) Error() string {
	return fmt.Sprintf("input %q is missing required features: %s",
		e.Title, strings.Join(e.Features, ", "))
}

// row projects the derived vector onto the artifact's feature order and
// collects the expected features the vector could not supply.
func (p *Predictor) row(vec *feature.Vector) ([]float64, []string) {
	row := make([]float64, len(p.art.FeatureColumns))
	var missing []string
	for i, col := range p.art.FeatureColumns {
		if f, ok := vec.Get(col).Number(); ok {
			row[i] = f
		} else {
			row[i] = math.NaN()
			missing = append(missing, col)
		}
	}
	return row, missing
}

func (p *Predictor) result(title string, value float64, degraded bool) *Result {
	band := Band(value)
	return &Result{
		Title:          title,
		Prediction:     value,
		Band:           band,
		Recommendation: Recommendation(band),
		Degraded:       degraded,
	}
}
