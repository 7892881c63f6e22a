package model

import (
	"encoding/json"
	"fmt"
)

// pipelinePayload is the wire form of a pipeline. The model payload is kept
// raw so decoding can pick the concrete type from the family name.
type pipelinePayload struct {
	Family string          `json:"family"`
	Params Params          `json:"params"`
	Pre    *Preprocessor   `json:"preprocessor"`
	Model  json.RawMessage `json:"model"`
}

// MarshalJSON encodes the pipeline together with its concrete model.
func (p *Pipeline) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(p.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s model: %w", p.Family, err)
	}
	return json.Marshal(pipelinePayload{
		Family: p.Family,
		Params: p.Params,
		Pre:    p.Pre,
		Model:  raw,
	})
}

// UnmarshalJSON decodes the pipeline, instantiating the model type named by
// the family field.
func (p *Pipeline) UnmarshalJSON(data []byte) error {
	var payload pipelinePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode pipeline: %w", err)
	}

	var model Regressor
	switch payload.Family {
	case FamilyLinear:
		model = &Linear{}
	case FamilyRandomForest:
		model = &Forest{}
	case FamilyGradientBoosting:
		model = &GradientBoosting{}
	default:
		return fmt.Errorf("unknown model family %q", payload.Family)
	}
	if err := json.Unmarshal(payload.Model, model); err != nil {
		return fmt.Errorf("failed to decode %s model: %w", payload.Family, err)
	}

	p.Family = payload.Family
	p.Params = payload.Params
	p.Pre = payload.Pre
	p.Model = model
	return nil
}

// predictorPayload wraps either a single pipeline or an ensemble for
// persistence.
type predictorPayload struct {
	Kind     string          `json:"kind"`
	Pipeline json.RawMessage `json:"pipeline,omitempty"`
	Ensemble json.RawMessage `json:"ensemble,omitempty"`
}

// Predictor is the minimal surface shared by single pipelines and voting
// ensembles.
type Predictor interface {
	Predict(x []float64) (float64, error)
	PredictBatch(X [][]float64) ([]float64, error)
}

// EncodePredictor serializes a pipeline or ensemble for storage.
func EncodePredictor(pred Predictor) ([]byte, error) {
	switch v := pred.(type) {
	case *Pipeline:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return json.Marshal(predictorPayload{Kind: "pipeline", Pipeline: raw})
	case *Ensemble:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return json.Marshal(predictorPayload{Kind: "ensemble", Ensemble: raw})
	default:
		return nil, fmt.Errorf("unsupported predictor type %T", pred)
	}
}

// DecodePredictor restores a predictor written by EncodePredictor.
func DecodePredictor(data []byte) (Predictor, error) {
	var payload predictorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode predictor: %w", err)
	}
	switch payload.Kind {
	case "pipeline":
		var p Pipeline
		if err := json.Unmarshal(payload.Pipeline, &p); err != nil {
			return nil, err
		}
		return &p, nil
	case "ensemble":
		var e Ensemble
		if err := json.Unmarshal(payload.Ensemble, &e); err != nil {
			return nil, err
		}
		return &e, nil
	default:
		return nil, fmt.Errorf("unknown predictor kind %q", payload.Kind)
	}
}
