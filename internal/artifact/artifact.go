// Package artifact persists trained predictors with everything inference
// needs: the encoded model, the ordered feature columns, the preprocessing
// transforms (inside the payload), and the evaluation metrics.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/duralab/frpdur/internal/model"
	"github.com/duralab/frpdur/internal/train"
)

// Artifact is one stored predictor. Payload is the predictor encoded by
// model.EncodePredictor; FeatureColumns fixes the exact input order the
// predictor expects.
type Artifact struct {
	ID             string          `json:"id"`
	RunID          string          `json:"run_id"`
	Family         string          `json:"family"`
	Target         string          `json:"target"`
	Best           bool            `json:"best"`
	FeatureColumns []string        `json:"feature_columns"`
	Params         model.Params    `json:"params,omitempty"`
	CVScores       []float64       `json:"cv_scores,omitempty"`
	Validation     model.Metrics   `json:"validation"`
	Test           model.Metrics   `json:"test"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Predictor decodes the stored predictor.
func (a *Artifact) Predictor() (model.Predictor, error) {
	if len(a.Payload) == 0 {
		return nil, fmt.Errorf("artifact %s has no payload", a.ID)
	}
	return model.DecodePredictor(a.Payload)
}

// FromReport bundles every successful family of a training run, including
// the ensemble, into artifacts. The champion carries Best=true.
func FromReport(report *train.Report) ([]*Artifact, error) {
	now := time.Now().UTC()
	var out []*Artifact
	for _, fr := range report.Families {
		if fr.Failed() {
			continue
		}
		pred := report.Predictor(fr.Family)
		if pred == nil {
			continue
		}
		payload, err := model.EncodePredictor(pred)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s predictor: %w", fr.Family, err)
		}
		out = append(out, &Artifact{
			ID:             uuid.NewString(),
			RunID:          report.RunID,
			Family:         fr.Family,
			Target:         report.Target,
			Best:           fr.Family == report.Best,
			FeatureColumns: append([]string(nil), report.FeatureCols...),
			Params:         fr.Params,
			CVScores:       fr.CVScores,
			Validation:     fr.Validation,
			Test:           fr.Test,
			Payload:        payload,
			CreatedAt:      now,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("report has no successful families")
	}
	return out, nil
}

// WriteFile exports the artifact as JSON. The write is atomic: it lands in
// a temp file first and renames into place.
func (a *Artifact) WriteFile(path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".artifact-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

// ReadFile loads an artifact exported by WriteFile.
func ReadFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact file: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact file: %w", err)
	}
	return &a, nil
}
