// Package enrichment implements the worker-side analysis mirror: the
// same negation, SVO and pattern definitions as the live classifier,
// run over full conversation batches to pre-identify signals before the
// LLM fact extraction pass.
package enrichment

import (
	"strings"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
	"github.com/whisperengine-ai/whisperengine/internal/core/ports"
	"github.com/whisperengine-ai/whisperengine/internal/core/usecase"
)

// Signals is everything the preprocessor found across a conversation's
// user messages, in first-seen order.
type Signals struct {
	Entities      []domain.Entity
	Relationships []domain.SVORelationship
	Patterns      []domain.PatternCategory
}

// Empty reports whether nothing was found.
func (s Signals) Empty() bool {
	return len(s.Entities) == 0 && len(s.Relationships) == 0 && len(s.Patterns) == 0
}

// Preprocessor runs the grammatical analysis mirror. The worker process
// constructs its own annotator and pattern table; nothing is shared with
// the api binary at runtime, only the definitions are.
type Preprocessor struct {
	annotator ports.Annotator
	patterns  *usecase.PatternTable
}

func NewPreprocessor(annotator ports.Annotator) *Preprocessor {
	return &Preprocessor{
		annotator: annotator,
		patterns:  usecase.NewPatternTable(),
	}
}

// Analyze annotates each user message and collects entities, SVO
// relations (with negation applied) and pattern categories. Assistant
// messages are context for the LLM but carry no user signals.
func (p *Preprocessor) Analyze(messages []domain.ConversationMessage) Signals {
	var signals Signals
	seenEntities := make(map[string]struct{})
	seenRelations := make(map[string]struct{})
	seenPatterns := make(map[domain.PatternCategory]struct{})

	for _, msg := range messages {
		if msg.Role != "user" || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		annotated := p.annotator.Annotate(msg.Content)
		if annotated == nil || len(annotated.Tokens) == 0 {
			continue
		}

		for _, ent := range annotated.Entities {
			key := ent.Text + "\x00" + ent.Label
			if _, ok := seenEntities[key]; ok {
				continue
			}
			seenEntities[key] = struct{}{}
			signals.Entities = append(signals.Entities, ent)
		}

		negation := usecase.DetectNegation(annotated)
		for _, rel := range usecase.ExtractSVO(annotated) {
			if !rel.Negated && negation.HasNegation && containsString(negation.NegatedVerbs, rel.Verb) {
				rel.Negated = true
			}
			key := rel.Subject + "\x00" + rel.Verb + "\x00" + rel.Object
			if _, ok := seenRelations[key]; ok {
				continue
			}
			seenRelations[key] = struct{}{}
			signals.Relationships = append(signals.Relationships, rel)
		}

		for category, matches := range p.patterns.Extract(annotated) {
			if len(matches) == 0 {
				continue
			}
			if _, ok := seenPatterns[category]; ok {
				continue
			}
			seenPatterns[category] = struct{}{}
			signals.Patterns = append(signals.Patterns, category)
		}
	}

	sortPatterns(signals.Patterns)
	return signals
}

// sortPatterns orders categories by the table's declaration order so the
// rendered prefix is deterministic regardless of map iteration.
func sortPatterns(patterns []domain.PatternCategory) {
	order := map[domain.PatternCategory]int{
		domain.PatternNegatedPreference: 0,
		domain.PatternStrongPreference:  1,
		domain.PatternTemporalChange:    2,
		domain.PatternHedging:           3,
		domain.PatternConditional:       4,
	}
	for i := 1; i < len(patterns); i++ {
		for j := i; j > 0 && order[patterns[j]] < order[patterns[j-1]]; j-- {
			patterns[j], patterns[j-1] = patterns[j-1], patterns[j]
		}
	}
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
