package usecase

import (
	"math"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
)

// negationMarkers are bare negative adverbs/determiners matched through
// the advmod dependency path.
var negationMarkers = map[string]struct{}{
	"not": {}, "n't": {}, "never": {}, "no": {}, "neither": {},
	"nor": {}, "none": {}, "nobody": {}, "nothing": {}, "nowhere": {},
}

// contractedNegations are matched literally, independent of the parse.
var contractedNegations = map[string]struct{}{
	"don't": {}, "doesn't": {}, "didn't": {}, "won't": {},
	"wouldn't": {}, "can't": {}, "cannot": {}, "couldn't": {},
	"shouldn't": {}, "isn't": {}, "aren't": {}, "wasn't": {}, "weren't": {},
}

// preferenceAdjectives flag preference questions.
var preferenceAdjectives = map[string]struct{}{
	"favorite": {}, "favourite": {}, "preferred": {}, "best": {},
	"good": {}, "bad": {}, "worst": {}, "top": {}, "greatest": {}, "ideal": {},
}

// hypotheticalModals flag hypothetical questions.
var hypotheticalModals = map[string]struct{}{
	"would": {}, "could": {}, "should": {}, "might": {}, "may": {},
}

// NegationInfo is the negation detector output.
type NegationInfo struct {
	HasNegation   bool
	NegatedVerbs  []string
	SurfaceTokens []string
}

// detectNegation scans for negation through three independent paths, any
// one of which is sufficient: an explicit neg dependency, an adverbial
// modifier whose lemma is a negation marker, or a literal contracted
// auxiliary.
func DetectNegation(query *domain.AnnotatedQuery) NegationInfo {
	var info NegationInfo
	if query == nil {
		return info
	}

	for i := range query.Tokens {
		token := &query.Tokens[i]

		if _, ok := contractedNegations[token.Lower]; ok {
			info.HasNegation = true
			info.SurfaceTokens = append(info.SurfaceTokens, token.Text)
			if head := headVerb(query, token); head != nil {
				info.NegatedVerbs = appendUnique(info.NegatedVerbs, head.Lemma)
			}
			continue
		}

		for _, child := range query.Children(i) {
			negDep := child.Dep == domain.DepNeg
			negAdv := false
			if child.Dep == domain.DepAdvMod {
				_, negAdv = negationMarkers[child.Lemma]
			}
			if !negDep && !negAdv {
				continue
			}
			info.HasNegation = true
			info.SurfaceTokens = append(info.SurfaceTokens, child.Text)
			if token.POS == domain.POSVerb || token.POS == domain.POSAux {
				info.NegatedVerbs = appendUnique(info.NegatedVerbs, token.Lemma)
			}
		}
	}
	return info
}

// extractSVO pulls subject-verb-object relations from the shallow parse.
// A relation is emitted only when both subject and object were found:
// a literal direct object at confidence 0.9, or a noun inside a clausal
// complement subtree at 0.7.
func ExtractSVO(query *domain.AnnotatedQuery) []domain.SVORelationship {
	if query == nil {
		return nil
	}

	var out []domain.SVORelationship
	for i := range query.Tokens {
		verb := &query.Tokens[i]
		if verb.POS != domain.POSVerb {
			continue
		}
		if verb.Dep != domain.DepRoot && verb.Dep != domain.DepConj && !hasChildDep(query, i, domain.DepSubject) {
			continue
		}

		children := query.Children(i)

		var subject *domain.Token
		var object *domain.Token
		negated := false
		confidence := 0.0

		for _, child := range children {
			switch child.Dep {
			case domain.DepSubject:
				if subject == nil {
					subject = child
				}
			case domain.DepObject:
				if object == nil {
					object = child
					confidence = 0.9
				}
			case domain.DepNeg:
				negated = true
			case domain.DepAux:
				if _, ok := contractedNegations[child.Lower]; ok {
					negated = true
				}
			}
		}

		// Coordinated verbs share the subject of the verb they conjoin.
		if subject == nil && verb.Dep == domain.DepConj {
			subject = subjectOf(query, verb.Head)
		}

		if object == nil {
			object = complementObject(query, i)
			if object != nil {
				confidence = 0.7
			}
		}

		if subject == nil || object == nil {
			continue
		}

		out = append(out, domain.SVORelationship{
			Subject:        subject.Text,
			Verb:           verb.Lemma,
			Object:         object.Text,
			Negated:        negated,
			Confidence:     confidence,
			SourceSentence: query.Text,
		})
	}
	return out
}

// analyzeSophistication derives the question-complexity signals used to
// bias routing: preference and comparison detection over adjectives,
// hypothetical detection over modals, and a deterministic 0-10 scale
// (POS-tag diversity plus +2/+3/+4 bonuses) normalised into [0,1].
func AnalyzeSophistication(query *domain.AnnotatedQuery) domain.QuestionSophistication {
	var s domain.QuestionSophistication
	if query == nil {
		return s
	}

	tags := make(map[string]struct{})
	for i := range query.Tokens {
		token := &query.Tokens[i]
		if token.Tag != "" {
			tags[token.Tag] = struct{}{}
		}

		switch token.POS {
		case domain.POSAdj:
			if _, ok := preferenceAdjectives[token.Lemma]; ok {
				s.IsPreference = true
			}
			for _, child := range query.Children(i) {
				if child.Lower == "than" {
					s.IsComparison = true
				}
			}
		case domain.POSAux, domain.POSVerb:
			if _, ok := hypotheticalModals[token.Lemma]; ok && token.Tag == "MD" {
				s.IsHypothetical = true
			}
		}
	}

	raw := math.Min(1.0, float64(len(tags))/10.0)
	if s.IsPreference {
		raw += 2
	}
	if s.IsComparison {
		raw += 3
	}
	if s.IsHypothetical {
		raw += 4
	}
	s.ComplexityScore = math.Min(1.0, raw/10.0)
	return s
}

func headVerb(query *domain.AnnotatedQuery, token *domain.Token) *domain.Token {
	head := token.Head
	if head < 0 || head >= len(query.Tokens) || head == token.Index {
		return nil
	}
	h := &query.Tokens[head]
	if h.POS == domain.POSVerb || h.POS == domain.POSAux {
		return h
	}
	return nil
}

func hasChildDep(query *domain.AnnotatedQuery, head int, dep string) bool {
	for _, child := range query.Children(head) {
		if child.Dep == dep {
			return true
		}
	}
	return false
}

func subjectOf(query *domain.AnnotatedQuery, head int) *domain.Token {
	for _, child := range query.Children(head) {
		if child.Dep == domain.DepSubject {
			return child
		}
	}
	return nil
}

// complementObject finds a noun or proper noun inside a clausal
// complement subtree of the verb at index.
func complementObject(query *domain.AnnotatedQuery, index int) *domain.Token {
	for _, child := range query.Children(index) {
		if child.Dep != domain.DepCcomp {
			continue
		}
		if child.POS == domain.POSNoun || child.POS == domain.POSProp {
			return child
		}
		for _, grandchild := range query.Children(child.Index) {
			if grandchild.POS == domain.POSNoun || grandchild.POS == domain.POSProp {
				return grandchild
			}
		}
	}
	return nil
}

func appendUnique(list []string, value string) []string {
	if value == "" {
		return list
	}
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
