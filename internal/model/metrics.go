package model

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metrics holds the regression evaluation metrics reported for a fit.
type Metrics struct {
	R2   float64 `json:"r2"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	N    int     `json:"n"`
}

// Evaluate computes R², MSE, RMSE, and MAE for aligned prediction/truth
// vectors.
func Evaluate(yTrue, yPred []float64) (Metrics, error) {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return Metrics{}, fmt.Errorf("mismatched metric inputs: %d true vs %d predicted", len(yTrue), len(yPred))
	}

	mean := stat.Mean(yTrue, nil)
	var ssRes, ssTot, absSum float64
	for i := range yTrue {
		diff := yTrue[i] - yPred[i]
		ssRes += diff * diff
		absSum += math.Abs(diff)
		dev := yTrue[i] - mean
		ssTot += dev * dev
	}

	n := float64(len(yTrue))
	m := Metrics{
		MSE:  ssRes / n,
		MAE:  absSum / n,
		N:    len(yTrue),
	}
	m.RMSE = math.Sqrt(m.MSE)
	if ssTot == 0 {
		// Constant target: perfect fit scores 0, anything else is undefined
		// and reported as -inf to rank below every real fit.
		if ssRes == 0 {
			m.R2 = 0
		} else {
			m.R2 = math.Inf(-1)
		}
	} else {
		m.R2 = 1 - ssRes/ssTot
	}
	return m, nil
}

// metricsPayload is the wire form of Metrics. JSON cannot encode non-finite
// numbers, so those fields serialize as null and restore to their in-memory
// conventions on decode.
type metricsPayload struct {
	R2   *float64 `json:"r2"`
	MSE  *float64 `json:"mse"`
	RMSE *float64 `json:"rmse"`
	MAE  *float64 `json:"mae"`
	N    int      `json:"n"`
}

// MarshalJSON encodes the metrics with non-finite values mapped to null.
func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(metricsPayload{
		R2:   finiteOrNil(m.R2),
		MSE:  finiteOrNil(m.MSE),
		RMSE: finiteOrNil(m.RMSE),
		MAE:  finiteOrNil(m.MAE),
		N:    m.N,
	})
}

// UnmarshalJSON restores metrics written by MarshalJSON. A null R2 decodes
// back to -inf, the degenerate-fit marker; other null fields decode to NaN.
func (m *Metrics) UnmarshalJSON(data []byte) error {
	var p metricsPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	m.R2 = floatOr(p.R2, math.Inf(-1))
	m.MSE = floatOr(p.MSE, math.NaN())
	m.RMSE = floatOr(p.RMSE, math.NaN())
	m.MAE = floatOr(p.MAE, math.NaN())
	m.N = p.N
	return nil
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// R2Score is a convenience wrapper returning only the coefficient of
// determination.
func R2Score(yTrue, yPred []float64) (float64, error) {
	m, err := Evaluate(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return m.R2, nil
}
