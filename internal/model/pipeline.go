package model

import "fmt"

// Pipeline couples a fitted preprocessor with a regressor so callers always
// feed raw feature rows and never see the transformed space.
type Pipeline struct {
	Family string        `json:"family"`
	Params Params        `json:"params"`
	Pre    *Preprocessor `json:"preprocessor"`
	Model  Regressor     `json:"-"`
}

// NewPipeline builds an unfitted pipeline for a model family.
func NewPipeline(family string, params Params, columns []string, seed int64) (*Pipeline, error) {
	reg, err := New(family, params, seed)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Family: family,
		Params: params.Clone(),
		Pre:    NewPreprocessor(columns),
		Model:  reg,
	}, nil
}

// Fit learns the preprocessing statistics on X and trains the model on the
// transformed rows.
func (p *Pipeline) Fit(X [][]float64, y []float64) error {
	if p.Model == nil {
		return fmt.Errorf("pipeline has no model")
	}
	if err := p.Pre.Fit(X); err != nil {
		return fmt.Errorf("failed to fit preprocessor: %w", err)
	}
	tx, err := p.Pre.Transform(X)
	if err != nil {
		return fmt.Errorf("failed to transform training data: %w", err)
	}
	if err := p.Model.Fit(tx, y); err != nil {
		return fmt.Errorf("failed to fit %s model: %w", p.Family, err)
	}
	return nil
}

// Predict transforms one raw feature row and applies the model.
func (p *Pipeline) Predict(x []float64) (float64, error) {
	if p.Model == nil {
		return 0, fmt.Errorf("pipeline has no model")
	}
	tx, err := p.Pre.TransformRow(x)
	if err != nil {
		return 0, err
	}
	return p.Model.Predict(tx)
}

// PredictBatch predicts every row in order.
func (p *Pipeline) PredictBatch(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		v, err := p.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("failed to predict row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
