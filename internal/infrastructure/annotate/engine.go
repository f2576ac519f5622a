// Package annotate implements the shared linguistic-model handle:
// tokenization and POS tagging (prose), dictionary lemmatization (golem),
// Snowball stemming, an optional word2vec vector table, and a rule-based
// shallow dependency pass over the tagged sequence.
package annotate

import (
	"log/slog"
	"strings"
	"sync"
	"unicode"

	golem "github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	prose "github.com/jdkato/prose/v2"
	"github.com/kljensen/snowball/english"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
)

// Options configures the engine. DisableParser forces keyword-only
// degraded mode, which is also the automatic response to any model
// construction failure.
type Options struct {
	WordVectorPath string
	DisableParser  bool
}

// Engine is a process-wide annotator. It is safe for concurrent use:
// all state is read-only after construction.
type Engine struct {
	lemmatizer *golem.Lemmatizer
	vectors    *VectorTable
	parserOK   bool
}

var (
	sharedOnce   sync.Once
	sharedEngine *Engine
)

// Shared returns the process-wide engine, constructing it on first call.
// Every later call returns the identical instance regardless of options,
// so all components pay the model-load cost exactly once.
func Shared(opts Options) *Engine {
	sharedOnce.Do(func() {
		sharedEngine = New(opts)
	})
	return sharedEngine
}

// New constructs an independent engine. Construction never fails: a
// missing vector table or dictionary downgrades capability and is logged
// once here rather than per query.
func New(opts Options) *Engine {
	e := &Engine{parserOK: !opts.DisableParser}

	lemmatizer, err := golem.New(en.New())
	if err != nil {
		slog.Warn("lemmatizer_unavailable", "error", err)
	} else {
		e.lemmatizer = lemmatizer
	}

	if opts.WordVectorPath != "" && e.parserOK {
		vectors, err := LoadVectorTable(opts.WordVectorPath)
		if err != nil {
			slog.Warn("word_vectors_unavailable", "path", opts.WordVectorPath, "error", err)
		} else {
			e.vectors = vectors
			slog.Info("word_vectors_loaded", "words", vectors.Len(), "dim", vectors.Dim())
		}
	}

	if !e.parserOK {
		slog.Warn("annotator_degraded", "mode", "keyword_only")
	}
	return e
}

// HasWordVectors reports whether token vectors are available.
func (e *Engine) HasWordVectors() bool { return e.vectors != nil }

// HasParser reports whether POS/dependency annotation is available.
func (e *Engine) HasParser() bool { return e.parserOK }

// Lemma returns the dictionary base form of a single word.
func (e *Engine) Lemma(word string) string {
	lower := strings.ToLower(strings.TrimSpace(word))
	if lower == "" {
		return ""
	}
	if e.lemmatizer == nil {
		return lower
	}
	return strings.ToLower(e.lemmatizer.Lemma(lower))
}

// Stem returns the Snowball stem of a single word.
func (e *Engine) Stem(word string) string {
	lower := strings.ToLower(strings.TrimSpace(word))
	if lower == "" {
		return ""
	}
	return english.Stem(lower, false)
}

// Annotate tokenizes, tags and shallow-parses text. It never fails for
// input-data reasons; the degraded path still yields surface tokens.
func (e *Engine) Annotate(text string) *domain.AnnotatedQuery {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &domain.AnnotatedQuery{Text: text}
	}
	if !e.parserOK {
		return e.annotateDegraded(trimmed)
	}

	doc, err := prose.NewDocument(trimmed, prose.WithSegmentation(false))
	if err != nil {
		slog.Debug("prose_annotation_failed", "error", err)
		return e.annotateDegraded(trimmed)
	}

	proseTokens := doc.Tokens()
	tokens := make([]domain.Token, 0, len(proseTokens))
	for i, pt := range proseTokens {
		lower := strings.ToLower(pt.Text)
		pos := coarsePOS(pt.Tag)
		token := domain.Token{
			Index:   i,
			Text:    pt.Text,
			Lower:   lower,
			Lemma:   e.Lemma(lower),
			POS:     pos,
			Tag:     pt.Tag,
			Dep:     domain.DepDep,
			Head:    i,
			IsStop:  isStopWord(lower),
			IsPunct: pos == domain.POSPunct,
		}
		if e.vectors != nil && !token.IsPunct {
			token.Vector = e.vectors.Lookup(lower)
		}
		tokens = append(tokens, token)
	}

	assignDependencies(tokens)

	annotated := &domain.AnnotatedQuery{Text: trimmed, Tokens: tokens}
	for _, ent := range doc.Entities() {
		annotated.Entities = append(annotated.Entities, domain.Entity{Text: ent.Text, Label: ent.Label})
	}
	return annotated
}

// annotateDegraded is the keyword-only path: whitespace tokens with
// lemma equal to the lowercased surface and no grammatical annotation.
func (e *Engine) annotateDegraded(text string) *domain.AnnotatedQuery {
	fields := strings.Fields(text)
	tokens := make([]domain.Token, 0, len(fields))
	for i, field := range fields {
		cleaned := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsPunct(r) && r != '\''
		})
		if cleaned == "" {
			continue
		}
		lower := strings.ToLower(cleaned)
		tokens = append(tokens, domain.Token{
			Index:  i,
			Text:   cleaned,
			Lower:  lower,
			Lemma:  lower,
			Dep:    domain.DepDep,
			Head:   i,
			IsStop: isStopWord(lower),
		})
	}
	for i := range tokens {
		tokens[i].Index = i
		tokens[i].Head = i
	}
	return &domain.AnnotatedQuery{Text: text, Tokens: tokens}
}

// coarsePOS maps a Penn Treebank tag to the coarse class used by the
// matchers. Possessive pronouns group with determiners so they never
// surface as objects.
func coarsePOS(tag string) domain.POS {
	switch {
	case tag == "MD":
		return domain.POSAux
	case strings.HasPrefix(tag, "VB"):
		return domain.POSVerb
	case tag == "NNP" || tag == "NNPS":
		return domain.POSProp
	case strings.HasPrefix(tag, "NN"):
		return domain.POSNoun
	case strings.HasPrefix(tag, "JJ"):
		return domain.POSAdj
	case strings.HasPrefix(tag, "RB"):
		return domain.POSAdv
	case tag == "PRP" || tag == "WP":
		return domain.POSPron
	case tag == "PRP$" || tag == "DT" || tag == "WDT" || tag == "WP$":
		return domain.POSDet
	case tag == "IN":
		return domain.POSAdp
	case tag == "TO" || tag == "RP" || tag == "POS":
		return domain.POSPart
	case tag == "CC":
		return domain.POSCconj
	case tag == "CD":
		return domain.POSNum
	case tag == "UH":
		return domain.POSIntj
	case tag == "" || strings.ContainsAny(tag, ".,:;!?()\"'`$#"):
		return domain.POSPunct
	default:
		return domain.POSOther
	}
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "be": {}, "been": {}, "am": {}, "i": {}, "you": {},
	"he": {}, "she": {}, "it": {}, "we": {}, "they": {}, "me": {},
	"my": {}, "your": {}, "his": {}, "her": {}, "its": {}, "our": {},
	"their": {}, "of": {}, "to": {}, "in": {}, "on": {}, "at": {},
	"for": {}, "with": {}, "and": {}, "or": {}, "but": {}, "do": {},
	"does": {}, "did": {}, "not": {}, "n't": {}, "no": {}, "so": {},
	"what": {}, "that": {}, "this": {}, "these": {}, "those": {},
	"there": {}, "here": {}, "have": {}, "has": {}, "had": {},
	"will": {}, "would": {}, "can": {}, "could": {}, "should": {},
	"as": {}, "by": {}, "from": {}, "about": {}, "into": {},
}

func isStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}
