package explain

import (
	"errors"
	"math"
	"testing"

	"github.com/sibyl-dev/sibyl/internal/domain"
	"github.com/sibyl-dev/sibyl/internal/domain/table"
)

func encode(t *testing.T, kind string, params LinearParams) []byte {
	t.Helper()
	blob, err := Encode(kind, params)
	if err != nil {
		t.Fatalf("encode %s: %v", kind, err)
	}
	return blob
}

func row(cells map[string]domain.Value) table.Row {
	return table.NewRow("r1", cells)
}

func TestLinearPredictor_Predict(t *testing.T) {
	blob := encode(t, KindLinear, LinearParams{
		Coefficients: map[string]float64{"A": 1, "B": -1},
	})
	p, err := DecodePredictor(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	got, err := p.Predict(row(map[string]domain.Value{
		"A": domain.Num(10),
		"B": domain.Num(4),
	}))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got != 6 {
		t.Errorf("prediction: got %v, want 6", got)
	}
}

func TestLinearPredictor_InterceptAndMissingFeatures(t *testing.T) {
	blob := encode(t, KindLinear, LinearParams{
		Coefficients: map[string]float64{"A": 2, "B": 3},
		Intercept:    5,
	})
	p, err := DecodePredictor(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	// B is absent from the row and counts as zero.
	got, err := p.Predict(row(map[string]domain.Value{"A": domain.Num(4)}))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got != 13 {
		t.Errorf("prediction: got %v, want 13", got)
	}
}

func TestLinearPredictor_BooleanFeatureCountsAsZeroOne(t *testing.T) {
	blob := encode(t, KindLinear, LinearParams{
		Coefficients: map[string]float64{"flag": 7},
	})
	p, err := DecodePredictor(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	got, err := p.Predict(row(map[string]domain.Value{"flag": domain.Bool(true)}))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got != 7 {
		t.Errorf("prediction: got %v, want 7", got)
	}
}

func TestLinearPredictor_NonNumericFeature(t *testing.T) {
	blob := encode(t, KindLinear, LinearParams{
		Coefficients: map[string]float64{"A": 1},
	})
	p, err := DecodePredictor(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	_, err = p.Predict(row(map[string]domain.Value{"A": domain.Str("red")}))
	if !errors.Is(err, domain.ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestLogisticPredictor_ProbaSumsToOne(t *testing.T) {
	blob := encode(t, KindLogistic, LinearParams{
		Coefficients: map[string]float64{"A": 1},
		Intercept:    -2,
	})
	p, err := DecodePredictor(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	proba, ok := p.(ProbaPredictor)
	if !ok {
		t.Fatal("logistic predictor must expose PredictProba")
	}
	probs, err := proba.PredictProba(row(map[string]domain.Value{"A": domain.Num(2)}))
	if err != nil {
		t.Fatalf("predict proba: %v", err)
	}
	if len(probs) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(probs))
	}
	if math.Abs(probs[0]+probs[1]-1) > 1e-9 {
		t.Errorf("probabilities must sum to 1, got %v", probs)
	}
	// Score zero puts both classes at 0.5.
	if math.Abs(probs[1]-0.5) > 1e-9 {
		t.Errorf("positive class: got %v, want 0.5", probs[1])
	}
}

func TestLogisticPredictor_PredictsMostProbableClass(t *testing.T) {
	blob := encode(t, KindLogistic, LinearParams{
		Coefficients: map[string]float64{"A": 1},
	})
	p, err := DecodePredictor(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	pos, err := p.Predict(row(map[string]domain.Value{"A": domain.Num(3)}))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if pos != 1 {
		t.Errorf("positive score: got class %v, want 1", pos)
	}

	neg, err := p.Predict(row(map[string]domain.Value{"A": domain.Num(-3)}))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if neg != 0 {
		t.Errorf("negative score: got class %v, want 0", neg)
	}
}

func TestLinearExplainer_Contributions(t *testing.T) {
	blob := encode(t, KindLinear, LinearParams{
		Coefficients: map[string]float64{"A": 1, "B": -1},
		Baselines:    map[string]float64{"A": 8, "B": 5},
	})
	e, err := DecodeExplainer(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	out, err := e.Contributions(row(map[string]domain.Value{
		"A": domain.Num(10),
		"B": domain.Num(4),
	}))
	if err != nil {
		t.Fatalf("contributions: %v", err)
	}

	a := out["A"]
	if a.Contribution != 2 {
		t.Errorf("A contribution: got %v, want 2", a.Contribution)
	}
	if v, _ := a.Value.Float(); v != 10 {
		t.Errorf("A value: got %v, want 10", a.Value)
	}
	if avg, _ := a.Average.Float(); avg != 8 {
		t.Errorf("A average: got %v, want 8", a.Average)
	}

	if b := out["B"]; b.Contribution != 1 {
		t.Errorf("B contribution: got %v, want 1", b.Contribution)
	}
}

func TestLinearExplainer_MissingBaselineDefaultsToZero(t *testing.T) {
	blob := encode(t, KindLinear, LinearParams{
		Coefficients: map[string]float64{"A": 3},
	})
	e, err := DecodeExplainer(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	out, err := e.Contributions(row(map[string]domain.Value{"A": domain.Num(2)}))
	if err != nil {
		t.Fatalf("contributions: %v", err)
	}
	if out["A"].Contribution != 6 {
		t.Errorf("contribution: got %v, want 6", out["A"].Contribution)
	}
}

func TestDecodePredictor_CorruptBlob(t *testing.T) {
	_, err := DecodePredictor([]byte("not json"))
	if !errors.Is(err, domain.ErrDeserialization) {
		t.Errorf("expected ErrDeserialization, got %v", err)
	}
}

func TestDecodePredictor_UnknownKind(t *testing.T) {
	blob, err := Encode("oracle", LinearParams{Coefficients: map[string]float64{"A": 1}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, err = DecodePredictor(blob)
	if !errors.Is(err, domain.ErrDeserialization) {
		t.Errorf("expected ErrDeserialization, got %v", err)
	}
}

func TestDecodePredictor_UnsupportedVersion(t *testing.T) {
	_, err := DecodePredictor([]byte(`{"version":99,"kind":"linear","params":{}}`))
	if !errors.Is(err, domain.ErrDeserialization) {
		t.Errorf("expected ErrDeserialization, got %v", err)
	}
}

func TestDecodePredictor_EmptyCoefficients(t *testing.T) {
	blob := []byte(`{"version":1,"kind":"linear","params":{"coefficients":{}}}`)
	_, err := DecodePredictor(blob)
	if !errors.Is(err, domain.ErrDeserialization) {
		t.Errorf("expected ErrDeserialization, got %v", err)
	}
}

func TestDecodeExplainer_UnknownKind(t *testing.T) {
	// Logistic has no explainer registered.
	blob := encode(t, KindLogistic, LinearParams{Coefficients: map[string]float64{"A": 1}})
	_, err := DecodeExplainer(blob)
	if !errors.Is(err, domain.ErrDeserialization) {
		t.Errorf("expected ErrDeserialization, got %v", err)
	}
}
