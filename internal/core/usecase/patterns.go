package usecase

import (
	"strings"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
)

type quantifier int

const (
	one quantifier = iota
	zeroOrOne
	zeroOrMore
)

// tokenConstraint is one position of a token-sequence pattern. All set
// fields must hold for a token to satisfy the position.
type tokenConstraint struct {
	lemmaIn []string
	lowerIn []string
	pos     domain.POS
	quant   quantifier
}

type patternDef struct {
	category domain.PatternCategory
	seq      []tokenConstraint
}

// PatternTable is the immutable, declaratively built set of
// token-sequence patterns. It is constructed once at startup and matched
// as a pure function, so there is no mutable registry whose
// empty-but-initialized state could be mistaken for uninitialized.
type PatternTable struct {
	defs []patternDef
}

// NewPatternTable builds the five production pattern categories. The
// live classifier and the enrichment worker each call this in their own
// process; the definitions are the single source of both.
func NewPatternTable() *PatternTable {
	preferenceVerbs := []string{"like", "love", "enjoy", "prefer", "want"}
	sentimentVerbs := []string{"like", "love", "enjoy", "prefer", "hate", "dislike"}

	return &PatternTable{defs: []patternDef{
		{
			category: domain.PatternNegatedPreference,
			seq: []tokenConstraint{
				{lowerIn: []string{"do", "does", "did"}},
				{lowerIn: []string{"not", "n't"}},
				{lemmaIn: preferenceVerbs},
			},
		},
		{
			category: domain.PatternStrongPreference,
			seq: []tokenConstraint{
				{lowerIn: []string{"really", "absolutely", "definitely", "totally", "completely"}},
				{lemmaIn: sentimentVerbs},
			},
		},
		{
			category: domain.PatternTemporalChange,
			seq: []tokenConstraint{
				{lowerIn: []string{"used"}},
				{lowerIn: []string{"to"}},
				// Adverbs may intervene: "used to really enjoy".
				{pos: domain.POSAdv, quant: zeroOrMore},
				{pos: domain.POSVerb},
			},
		},
		{
			category: domain.PatternHedging,
			seq: []tokenConstraint{
				{lowerIn: []string{"maybe", "perhaps", "possibly", "might"}},
				{pos: domain.POSVerb},
			},
		},
		{
			category: domain.PatternHedging,
			seq: []tokenConstraint{
				{lowerIn: []string{"kind", "sort"}},
				{lowerIn: []string{"of"}},
				{pos: domain.POSVerb},
			},
		},
		{
			category: domain.PatternConditional,
			seq: []tokenConstraint{
				{lowerIn: []string{"if"}},
				{pos: domain.POSPron, quant: zeroOrOne},
				{lemmaIn: []string{"could", "would", "should", "can"}},
				{pos: domain.POSVerb},
			},
		},
	}}
}

// Categories returns the distinct category names in the table.
func (t *PatternTable) Categories() []domain.PatternCategory {
	seen := make(map[domain.PatternCategory]struct{}, len(t.defs))
	var out []domain.PatternCategory
	for _, def := range t.defs {
		if _, ok := seen[def.category]; ok {
			continue
		}
		seen[def.category] = struct{}{}
		out = append(out, def.category)
	}
	return out
}

// Extract runs every pattern over the annotated query and returns the
// matched spans per category. Overlapping matches from different
// categories are all reported; within one category the scan resumes
// after each match.
func (t *PatternTable) Extract(query *domain.AnnotatedQuery) map[domain.PatternCategory][]domain.PatternMatch {
	if t == nil || query == nil || len(query.Tokens) == 0 {
		return nil
	}

	out := make(map[domain.PatternCategory][]domain.PatternMatch)
	for _, def := range t.defs {
		start := 0
		for start < len(query.Tokens) {
			end, ok := matchSequence(query, def.seq, 0, start)
			if !ok {
				start++
				continue
			}
			out[def.category] = append(out[def.category], buildMatch(query, start, end))
			start = end + 1
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// matchSequence matches seq[seqIdx:] against tokens starting at tokIdx
// and returns the index of the last consumed token. zero-width
// quantifiers backtrack: a quantified position first tries to consume,
// then to skip.
func matchSequence(query *domain.AnnotatedQuery, seq []tokenConstraint, seqIdx, tokIdx int) (int, bool) {
	if seqIdx == len(seq) {
		return tokIdx - 1, true
	}
	c := seq[seqIdx]

	if tokIdx < len(query.Tokens) && c.matches(&query.Tokens[tokIdx]) {
		nextSeq := seqIdx + 1
		if c.quant == zeroOrMore {
			nextSeq = seqIdx // may consume again
		}
		if end, ok := matchSequence(query, seq, nextSeq, tokIdx+1); ok {
			return end, true
		}
		if c.quant == zeroOrMore {
			if end, ok := matchSequence(query, seq, seqIdx+1, tokIdx+1); ok {
				return end, true
			}
		}
	}

	if c.quant == zeroOrOne || c.quant == zeroOrMore {
		return matchSequence(query, seq, seqIdx+1, tokIdx)
	}
	return 0, false
}

func (c *tokenConstraint) matches(token *domain.Token) bool {
	if token.IsPunct {
		return false
	}
	if c.pos != "" && token.POS != c.pos {
		return false
	}
	if len(c.lowerIn) > 0 && !inList(c.lowerIn, token.Lower) {
		return false
	}
	if len(c.lemmaIn) > 0 && !inList(c.lemmaIn, token.Lemma) {
		return false
	}
	return true
}

func buildMatch(query *domain.AnnotatedQuery, start, end int) domain.PatternMatch {
	texts := make([]string, 0, end-start+1)
	lemmas := make([]string, 0, end-start+1)
	root := query.Tokens[end].Text
	for i := start; i <= end; i++ {
		texts = append(texts, query.Tokens[i].Text)
		lemmas = append(lemmas, query.Tokens[i].Lemma)
		if query.Tokens[i].POS == domain.POSVerb {
			root = query.Tokens[i].Text
		}
	}
	return domain.PatternMatch{
		Text:      strings.Join(texts, " "),
		Lemma:     strings.Join(lemmas, " "),
		StartTok:  start,
		EndTok:    end,
		RootToken: root,
	}
}

func inList(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
