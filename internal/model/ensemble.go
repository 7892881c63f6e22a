package model

import "fmt"

// FamilyEnsemble names the voting combination of fitted pipelines.
const FamilyEnsemble = "voting_ensemble"

// Ensemble averages the predictions of already-fitted member pipelines with
// equal weight.
type Ensemble struct {
	Members []*Pipeline `json:"members"`
}

// NewEnsemble builds a voting ensemble. It needs at least two members; a
// single model gains nothing from voting.
func NewEnsemble(members []*Pipeline) (*Ensemble, error) {
	if len(members) < 2 {
		return nil, fmt.Errorf("ensemble requires at least 2 members, got %d", len(members))
	}
	return &Ensemble{Members: members}, nil
}

// Predict averages the member predictions for one raw feature row.
func (e *Ensemble) Predict(x []float64) (float64, error) {
	var sum float64
	for _, m := range e.Members {
		v, err := m.Predict(x)
		if err != nil {
			return 0, fmt.Errorf("failed to predict with %s member: %w", m.Family, err)
		}
		sum += v
	}
	return sum / float64(len(e.Members)), nil
}

// PredictBatch predicts every row in order.
func (e *Ensemble) PredictBatch(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		v, err := e.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
