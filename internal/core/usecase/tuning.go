package usecase

// Tuning gathers every threshold and confidence increment used by the
// classifier in one place. The defaults were settled against a labeled
// utterance set; acceptable ranges are noted where a value is sensitive.
type Tuning struct {
	// SemanticThreshold is the minimum cosine similarity for a word-vector
	// keyword match. 0.65-0.68 catches true variants (joyful~happy)
	// without pulling in loosely related words (nice vs happy).
	SemanticThreshold float64

	// EmotionIntensityThreshold is the minimum upstream emotion-model
	// intensity that counts as an emotional signal on its own.
	EmotionIntensityThreshold float64

	// BaseConfidence is the starting confidence for any tier that fired
	// from a single signal.
	BaseConfidence float64

	// AgreementBonus is added per additional independent signal agreeing
	// with the winning tier.
	AgreementBonus float64

	// PreferenceBoost raises factual-recall confidence for preference
	// questions ("what's your favorite ...").
	PreferenceBoost float64

	// ReasoningPenalty lowers factual-recall confidence for comparison or
	// hypothetical questions, which imply reasoning rather than lookup.
	ReasoningPenalty float64

	// HedgingPenalty lowers confidence when hedging markers are present.
	HedgingPenalty float64

	// StrongPreferenceBoost raises confidence when an intensifier backs
	// the preference verb.
	StrongPreferenceBoost float64

	// MinConfidence/MaxConfidence clamp the final score.
	MinConfidence float64
	MaxConfidence float64
}

// DefaultTuning returns the production constants.
func DefaultTuning() Tuning {
	return Tuning{
		SemanticThreshold:         0.65,
		EmotionIntensityThreshold: 0.3,
		BaseConfidence:            0.6,
		AgreementBonus:            0.15,
		PreferenceBoost:           0.15,
		ReasoningPenalty:          0.2,
		HedgingPenalty:            0.1,
		StrongPreferenceBoost:     0.1,
		MinConfidence:             0.1,
		MaxConfidence:             0.98,
	}
}

func (t Tuning) clamp(v float64) float64 {
	if v < t.MinConfidence {
		return t.MinConfidence
	}
	if v > t.MaxConfidence {
		return t.MaxConfidence
	}
	return v
}

func (t Tuning) normalize() Tuning {
	def := DefaultTuning()
	out := t
	if out.SemanticThreshold <= 0 || out.SemanticThreshold >= 1 {
		out.SemanticThreshold = def.SemanticThreshold
	}
	if out.EmotionIntensityThreshold <= 0 {
		out.EmotionIntensityThreshold = def.EmotionIntensityThreshold
	}
	if out.BaseConfidence <= 0 {
		out.BaseConfidence = def.BaseConfidence
	}
	if out.AgreementBonus <= 0 {
		out.AgreementBonus = def.AgreementBonus
	}
	if out.PreferenceBoost <= 0 {
		out.PreferenceBoost = def.PreferenceBoost
	}
	if out.ReasoningPenalty <= 0 {
		out.ReasoningPenalty = def.ReasoningPenalty
	}
	if out.HedgingPenalty <= 0 {
		out.HedgingPenalty = def.HedgingPenalty
	}
	if out.StrongPreferenceBoost <= 0 {
		out.StrongPreferenceBoost = def.StrongPreferenceBoost
	}
	if out.MaxConfidence <= 0 || out.MaxConfidence > 1 {
		out.MaxConfidence = def.MaxConfidence
	}
	if out.MinConfidence <= 0 || out.MinConfidence >= out.MaxConfidence {
		out.MinConfidence = def.MinConfidence
	}
	return out
}
