package domain

// POS is a coarse part-of-speech class derived from the Penn Treebank tag.
type POS string

const (
	POSVerb  POS = "VERB"
	POSAux   POS = "AUX"
	POSNoun  POS = "NOUN"
	POSProp  POS = "PROPN"
	POSAdj   POS = "ADJ"
	POSAdv   POS = "ADV"
	POSPron  POS = "PRON"
	POSAdp   POS = "ADP"
	POSDet   POS = "DET"
	POSPart  POS = "PART"
	POSCconj POS = "CCONJ"
	POSSconj POS = "SCONJ"
	POSNum   POS = "NUM"
	POSIntj  POS = "INTJ"
	POSPunct POS = "PUNCT"
	POSOther POS = "X"
)

// Dependency labels assigned by the shallow parse.
const (
	DepRoot    = "ROOT"
	DepSubject = "nsubj"
	DepObject  = "dobj"
	DepNeg     = "neg"
	DepAux     = "aux"
	DepAdvMod  = "advmod"
	DepAmod    = "amod"
	DepPrep    = "prep"
	DepPobj    = "pobj"
	DepConj    = "conj"
	DepCcomp   = "ccomp"
	DepAcomp   = "acomp"
	DepMark    = "mark"
	DepDet     = "det"
	DepDep     = "dep"
)

// Token is one annotated token of a query. Head is the index of the
// governing token within the same AnnotatedQuery (Head == Index for the
// clause root). Vector is nil when the annotator has no word vectors.
type Token struct {
	Index   int       `json:"index"`
	Text    string    `json:"text"`
	Lower   string    `json:"lower"`
	Lemma   string    `json:"lemma"`
	POS     POS       `json:"pos"`
	Tag     string    `json:"tag"`
	Dep     string    `json:"dep"`
	Head    int       `json:"head"`
	IsStop  bool      `json:"is_stop"`
	IsPunct bool      `json:"is_punct"`
	Vector  []float32 `json:"-"`
}

// HasVector reports whether the token carries a word vector.
func (t *Token) HasVector() bool { return len(t.Vector) > 0 }

// IsContentToken reports whether the token should participate in semantic
// matching: not a stop word, not punctuation, at least three characters.
func (t *Token) IsContentToken() bool {
	return !t.IsStop && !t.IsPunct && len([]rune(t.Lower)) >= 3
}

// Entity is a named entity span recognised in the text.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// AnnotatedQuery is the single-pass annotation shared by every analyzer.
type AnnotatedQuery struct {
	Text     string   `json:"text"`
	Tokens   []Token  `json:"tokens"`
	Entities []Entity `json:"entities,omitempty"`
}

// Children returns the tokens whose head is the token at index head,
// in document order. The root is not its own child.
func (q *AnnotatedQuery) Children(head int) []*Token {
	if head < 0 || head >= len(q.Tokens) {
		return nil
	}
	var out []*Token
	for i := range q.Tokens {
		if i == head {
			continue
		}
		if q.Tokens[i].Head == head {
			out = append(out, &q.Tokens[i])
		}
	}
	return out
}

// Lemmas returns the set of token lemmas, lowercased.
func (q *AnnotatedQuery) Lemmas() map[string]struct{} {
	out := make(map[string]struct{}, len(q.Tokens))
	for i := range q.Tokens {
		if q.Tokens[i].Lemma != "" {
			out[q.Tokens[i].Lemma] = struct{}{}
		}
	}
	return out
}
