package engine

// Decision is the strategy output for one feature vector.
type Decision struct {
	Outcome       Outcome
	Confidence    float64
	DecisionScore float64
	RawScore      *float64
}

// Strategy converts a feature vector into an outcome with confidence.
// Implementations must be pure functions of their inputs.
type Strategy interface {
	Name() string
	Decide(f Features) Decision
}

// Strategy selector names accepted by SelectStrategy.
const (
	StrategyStandard   = "standard"
	StrategyCalibrated = "calibrated"
)

// SelectStrategy resolves a configured strategy name, defaulting to the
// standard weighted model for unknown values.
func SelectStrategy(cfg ModelConfig, name string) Strategy {
	if name == StrategyCalibrated {
		return NewCalibratedModel(cfg)
	}
	return NewStandardModel(cfg)
}

func (w Weights) combine(intercept float64, f Features) float64 {
	score := intercept
	score += w.ValueConflict * f.ValueConflict
	score += w.PatternRepetition * f.PatternRepetition
	score += w.EmotionalImpulse * f.EmotionalImpulse
	score += w.FinancialStrain * f.FinancialStrain
	score += w.Neuroticism * f.Neuroticism
	score += w.Materialism * f.Materialism
	score += w.LocusOfControl * f.LocusOfControl
	score -= w.LongTermUtility * f.LongTermUtility
	score -= w.EmotionalSupport * f.EmotionalSupport
	return score
}
