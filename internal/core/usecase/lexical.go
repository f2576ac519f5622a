package usecase

import (
	"strings"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
	"github.com/whisperengine-ai/whisperengine/internal/core/ports"
)

// lexicalMatcher checks raw-text and lemma-normalized keyword membership.
// Keyword lists only need to enumerate base forms; lemma and stem
// comparison catch unseen inflections (talked/talking/talks -> talk,
// recent -> recently collapse via the shared Snowball stem).
type lexicalMatcher struct {
	annotator ports.Annotator
}

func newLexicalMatcher(annotator ports.Annotator) *lexicalMatcher {
	return &lexicalMatcher{annotator: annotator}
}

// match reports whether any category keyword is present in the query and
// returns the matched forms. Multi-word phrases are checked as raw
// substrings first, since lemmatizing destroys idioms; single keywords
// match on lemma equality, then stem equality, then raw substring when
// no parser is available.
func (m *lexicalMatcher) match(query *domain.AnnotatedQuery, keywords []string) (bool, []string) {
	if query == nil || len(keywords) == 0 {
		return false, nil
	}

	lowered := strings.ToLower(query.Text)
	var matched []string

	phraseOnly := !m.annotator.HasParser()
	lemmas := query.Lemmas()
	stems := m.queryStems(query)

	for _, keyword := range keywords {
		kw := strings.ToLower(strings.TrimSpace(keyword))
		if kw == "" {
			continue
		}

		if strings.Contains(kw, " ") {
			if strings.Contains(lowered, kw) {
				matched = append(matched, kw)
			}
			continue
		}

		if phraseOnly {
			if containsWord(lowered, kw) {
				matched = append(matched, kw)
			}
			continue
		}

		lemma := m.annotator.Lemma(kw)
		if _, ok := lemmas[lemma]; ok {
			matched = append(matched, kw)
			continue
		}
		if _, ok := stems[m.annotator.Stem(kw)]; ok {
			matched = append(matched, kw)
		}
	}

	return len(matched) > 0, matched
}

func (m *lexicalMatcher) queryStems(query *domain.AnnotatedQuery) map[string]struct{} {
	out := make(map[string]struct{}, len(query.Tokens))
	for i := range query.Tokens {
		tok := &query.Tokens[i]
		if tok.IsPunct || tok.Lower == "" {
			continue
		}
		if stem := m.annotator.Stem(tok.Lower); stem != "" {
			out[stem] = struct{}{}
		}
	}
	return out
}

// containsWord is the degraded whole-word containment check used when no
// language model is loaded.
func containsWord(text, word string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], word)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(word)
		leftOK := start == 0 || !isWordByte(text[start-1])
		rightOK := end == len(text) || !isWordByte(text[end])
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
		if idx >= len(text) {
			return false
		}
	}
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '\''
}
