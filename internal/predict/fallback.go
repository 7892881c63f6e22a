package predict

import (
	"fmt"
	"math"

	"github.com/duralab/frpdur/internal/model"
	"github.com/duralab/frpdur/internal/record"
)

// PredictFallback is the explicitly degraded inference path for records
// that cannot satisfy the full feature contract. It uses whatever numeric
// features derive successfully, normalizes them with an ad-hoc row-level
// z-score instead of the stored training transforms, and zero-fills the
// rest. Results carry Degraded=true and must be treated as lower
// confidence.
func (p *Predictor) PredictFallback(r record.Record) (*Result, error) {
	vec := p.engine.DeriveAll([]record.Record{r})[0]
	row, missing := p.row(vec)

	p.logger.Warn("using degraded fallback prediction",
		"title", vec.Title,
		"missing_features", missing)

	var present []float64
	for _, v := range row {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("input %q has no numeric features for fallback prediction", vec.Title)
	}

	var sum float64
	for _, v := range present {
		sum += v
	}
	mean := sum / float64(len(present))
	var sq float64
	for _, v := range present {
		sq += (v - mean) * (v - mean)
	}
	std := math.Sqrt(sq / float64(len(present)))

	normalized := make([]float64, len(row))
	for i, v := range row {
		if math.IsNaN(v) {
			normalized[i] = 0
			continue
		}
		normalized[i] = (v - mean) / (std + 1e-8)
	}

	value, err := rawPredict(p.pred, normalized)
	if err != nil {
		return nil, fmt.Errorf("fallback prediction failed: %w", err)
	}
	return p.result(vec.Title, value, true), nil
}

// rawPredict feeds an already-normalized row straight to the bare fitted
// models, skipping the stored preprocessing transforms.
func rawPredict(pred model.Predictor, row []float64) (float64, error) {
	switch v := pred.(type) {
	case *model.Pipeline:
		return v.Model.Predict(row)
	case *model.Ensemble:
		var sum float64
		for _, m := range v.Members {
			f, err := m.Model.Predict(row)
			if err != nil {
				return 0, err
			}
			sum += f
		}
		return sum / float64(len(v.Members)), nil
	default:
		return 0, fmt.Errorf("unsupported predictor type %T", pred)
	}
}
