package usecase

import (
	"strings"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
)

// fakeAnnotator serves hand-built annotations keyed by exact text.
// Unknown text degrades to whitespace tokens without POS or deps, the
// same shape a parserless engine produces.
type fakeAnnotator struct {
	queries map[string]*domain.AnnotatedQuery
	vectors map[string][]float32
	stems   map[string]string

	hasParser  bool
	hasVectors bool

	annotateCalls int
}

func newFakeAnnotator() *fakeAnnotator {
	return &fakeAnnotator{
		queries:   make(map[string]*domain.AnnotatedQuery),
		vectors:   make(map[string][]float32),
		stems:     make(map[string]string),
		hasParser: true,
	}
}

func (f *fakeAnnotator) add(q *domain.AnnotatedQuery) *fakeAnnotator {
	f.queries[q.Text] = q
	return f
}

func (f *fakeAnnotator) Annotate(text string) *domain.AnnotatedQuery {
	f.annotateCalls++
	if q, ok := f.queries[text]; ok {
		return q
	}

	fields := strings.Fields(text)
	out := &domain.AnnotatedQuery{Text: text}
	for i, field := range fields {
		lower := strings.ToLower(strings.Trim(field, ".,!?"))
		tok := domain.Token{
			Index: i,
			Text:  field,
			Lower: lower,
			Lemma: lower,
			Head:  i,
		}
		if f.hasVectors {
			tok.Vector = f.vectors[lower]
		}
		out.Tokens = append(out.Tokens, tok)
	}
	return out
}

func (f *fakeAnnotator) Lemma(word string) string {
	return strings.ToLower(word)
}

func (f *fakeAnnotator) Stem(word string) string {
	lower := strings.ToLower(word)
	if stem, ok := f.stems[lower]; ok {
		return stem
	}
	return lower
}

func (f *fakeAnnotator) HasWordVectors() bool { return f.hasVectors }
func (f *fakeAnnotator) HasParser() bool      { return f.hasParser }

// tok builds one parsed token. Lemma defaults to the lowered text; use
// tokL when they differ.
func tok(i int, text string, pos domain.POS, tag, dep string, head int) domain.Token {
	lower := strings.ToLower(text)
	return domain.Token{
		Index: i,
		Text:  text,
		Lower: lower,
		Lemma: lower,
		POS:   pos,
		Tag:   tag,
		Dep:   dep,
		Head:  head,
	}
}

func tokL(i int, text, lemma string, pos domain.POS, tag, dep string, head int) domain.Token {
	t := tok(i, text, pos, tag, dep, head)
	t.Lemma = lemma
	return t
}

func punct(i int, text string, head int) domain.Token {
	t := tok(i, text, domain.POSPunct, ".", "punct", head)
	t.IsPunct = true
	return t
}

func annotated(text string, tokens ...domain.Token) *domain.AnnotatedQuery {
	return &domain.AnnotatedQuery{Text: text, Tokens: tokens}
}

// Canned annotations reused across the classifier tests.

func favoriteFoodQuery() *domain.AnnotatedQuery {
	return annotated("What is my favorite food?",
		tok(0, "What", domain.POSPron, "WP", domain.DepSubject, 1),
		tokL(1, "is", "be", domain.POSAux, "VBZ", domain.DepRoot, 1),
		tok(2, "my", domain.POSDet, "PRP$", domain.DepDet, 4),
		tok(3, "favorite", domain.POSAdj, "JJ", domain.DepAmod, 4),
		tok(4, "food", domain.POSNoun, "NN", domain.DepDep, 1),
		punct(5, "?", 1),
	)
}

func firstTalkQuery() *domain.AnnotatedQuery {
	return annotated("When did we first talk?",
		tok(0, "When", domain.POSAdv, "WRB", domain.DepAdvMod, 4),
		tokL(1, "did", "do", domain.POSAux, "VBD", domain.DepAux, 4),
		tok(2, "we", domain.POSPron, "PRP", domain.DepSubject, 4),
		tok(3, "first", domain.POSAdv, "RB", domain.DepAdvMod, 4),
		tok(4, "talk", domain.POSVerb, "VB", domain.DepRoot, 4),
		punct(5, "?", 4),
	)
}

func feelSadQuery() *domain.AnnotatedQuery {
	return annotated("I feel so sad",
		tok(0, "I", domain.POSPron, "PRP", domain.DepSubject, 1),
		tok(1, "feel", domain.POSVerb, "VBP", domain.DepRoot, 1),
		tok(2, "so", domain.POSAdv, "RB", domain.DepAdvMod, 3),
		tok(3, "sad", domain.POSAdj, "JJ", domain.DepAcomp, 1),
	)
}

func brotherQuery() *domain.AnnotatedQuery {
	return annotated("Tell me about my brother",
		tok(0, "Tell", domain.POSVerb, "VB", domain.DepRoot, 0),
		tok(1, "me", domain.POSPron, "PRP", domain.DepObject, 0),
		tok(2, "about", domain.POSAdp, "IN", domain.DepPrep, 0),
		tok(3, "my", domain.POSDet, "PRP$", domain.DepDet, 4),
		tok(4, "brother", domain.POSNoun, "NN", domain.DepPobj, 2),
	)
}

func negatedPreferenceQuery() *domain.AnnotatedQuery {
	return annotated("I do n't like spicy food",
		tok(0, "I", domain.POSPron, "PRP", domain.DepSubject, 3),
		tok(1, "do", domain.POSAux, "VBP", domain.DepAux, 3),
		tokL(2, "n't", "not", domain.POSPart, "RB", domain.DepNeg, 3),
		tok(3, "like", domain.POSVerb, "VB", domain.DepRoot, 3),
		tok(4, "spicy", domain.POSAdj, "JJ", domain.DepAmod, 5),
		tok(5, "food", domain.POSNoun, "NN", domain.DepObject, 3),
	)
}

func doubleNegativeQuery() *domain.AnnotatedQuery {
	return annotated("I do n't dislike pizza",
		tok(0, "I", domain.POSPron, "PRP", domain.DepSubject, 3),
		tok(1, "do", domain.POSAux, "VBP", domain.DepAux, 3),
		tokL(2, "n't", "not", domain.POSPart, "RB", domain.DepNeg, 3),
		tok(3, "dislike", domain.POSVerb, "VB", domain.DepRoot, 3),
		tok(4, "pizza", domain.POSNoun, "NN", domain.DepObject, 3),
	)
}

func hypotheticalQuery() *domain.AnnotatedQuery {
	return annotated("What would happen if I could fly?",
		tok(0, "What", domain.POSPron, "WP", domain.DepSubject, 2),
		tok(1, "would", domain.POSAux, "MD", domain.DepAux, 2),
		tok(2, "happen", domain.POSVerb, "VB", domain.DepRoot, 2),
		tok(3, "if", domain.POSSconj, "IN", domain.DepMark, 6),
		tok(4, "I", domain.POSPron, "PRP", domain.DepSubject, 6),
		tok(5, "could", domain.POSAux, "MD", domain.DepAux, 6),
		tok(6, "fly", domain.POSVerb, "VB", domain.DepDep, 2),
		punct(7, "?", 2),
	)
}

func layeredPatternQuery() *domain.AnnotatedQuery {
	return annotated("I sort of used to really love hiking",
		tok(0, "I", domain.POSPron, "PRP", domain.DepSubject, 3),
		tok(1, "sort", domain.POSNoun, "NN", domain.DepDep, 3),
		tok(2, "of", domain.POSAdp, "IN", domain.DepDep, 1),
		tokL(3, "used", "use", domain.POSVerb, "VBD", domain.DepRoot, 3),
		tok(4, "to", domain.POSPart, "TO", domain.DepAux, 6),
		tok(5, "really", domain.POSAdv, "RB", domain.DepAdvMod, 6),
		tok(6, "love", domain.POSVerb, "VB", domain.DepDep, 3),
		tok(7, "hiking", domain.POSNoun, "NN", domain.DepObject, 6),
	)
}

func weatherQuery() *domain.AnnotatedQuery {
	return annotated("The weather is nice today",
		tok(0, "The", domain.POSDet, "DT", domain.DepDet, 1),
		tok(1, "weather", domain.POSNoun, "NN", domain.DepSubject, 2),
		tokL(2, "is", "be", domain.POSAux, "VBZ", domain.DepRoot, 2),
		tok(3, "nice", domain.POSAdj, "JJ", domain.DepAcomp, 2),
		tok(4, "today", domain.POSNoun, "NN", domain.DepDep, 2),
	)
}
