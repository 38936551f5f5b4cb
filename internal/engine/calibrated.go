package engine

import "math"

// CalibratedModel feeds the linear score through a logistic transform and an
// empirically fitted piecewise-linear calibration curve before thresholding.
type CalibratedModel struct {
	cfg ModelConfig
}

// NewCalibratedModel constructs the cost-sensitive calibrated strategy.
func NewCalibratedModel(cfg ModelConfig) *CalibratedModel {
	return &CalibratedModel{cfg: cfg}
}

func (m *CalibratedModel) Name() string {
	return AlgorithmCalibrated
}

func (m *CalibratedModel) Decide(f Features) Decision {
	logit := m.cfg.Weights.combine(m.cfg.Intercept, f)
	raw := 1 / (1 + math.Exp(-logit))
	calibrated := Calibrate(m.cfg.CalibrationAnchors, raw)

	var outcome Outcome
	switch {
	case calibrated >= m.cfg.CalibratedSkipThreshold:
		outcome = OutcomeSkip
	case calibrated >= m.cfg.CalibratedHoldThreshold:
		outcome = OutcomeHold
	default:
		outcome = OutcomeBuy
	}

	rawCopy := raw
	return Decision{
		Outcome:       outcome,
		Confidence:    m.confidence(outcome, calibrated),
		DecisionScore: calibrated,
		RawScore:      &rawCopy,
	}
}

// confidence scales buy/skip linearly from 0.5 toward 0.95 by normalized
// distance past the outcome's threshold; hold confidence decays with distance
// from the midpoint of the hold band, capped at 0.9.
func (m *CalibratedModel) confidence(outcome Outcome, p float64) float64 {
	skipAt := m.cfg.CalibratedSkipThreshold
	holdAt := m.cfg.CalibratedHoldThreshold
	switch outcome {
	case OutcomeSkip:
		span := 1 - skipAt
		if span <= 0 {
			return 0.95
		}
		return clampConfidence(0.5 + 0.45*(p-skipAt)/span)
	case OutcomeBuy:
		if holdAt <= 0 {
			return 0.95
		}
		return clampConfidence(0.5 + 0.45*(holdAt-p)/holdAt)
	default:
		mid := (skipAt + holdAt) / 2
		half := (skipAt - holdAt) / 2
		if half <= 0 {
			return 0.5
		}
		conf := 0.5 + 0.4*(1-math.Abs(p-mid)/half)
		return clampFloat(conf, 0.5, 0.9)
	}
}

// Calibrate maps a raw probability onto the calibration curve by linear
// interpolation between the two bracketing anchors. Anchors sit at raw
// probabilities 0.0, 0.1, ..., 1.0.
func Calibrate(anchors []float64, raw float64) float64 {
	raw = clampFloat(raw, 0, 1)
	if len(anchors) < 2 {
		return raw
	}
	scaled := raw * float64(len(anchors)-1)
	lower := int(math.Floor(scaled))
	if lower >= len(anchors)-1 {
		return anchors[len(anchors)-1]
	}
	frac := scaled - float64(lower)
	return anchors[lower] + frac*(anchors[lower+1]-anchors[lower])
}
