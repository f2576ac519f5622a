package annotate

import (
	"strings"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
)

// auxiliaryLemmas are verbs that act as auxiliaries when a content verb
// follows within the attachment window.
var auxiliaryLemmas = map[string]struct{}{
	"do": {}, "be": {}, "have": {}, "will": {}, "would": {},
	"can": {}, "could": {}, "shall": {}, "should": {}, "may": {},
	"might": {}, "must": {},
}

var negationSurface = map[string]struct{}{
	"not": {}, "n't": {},
}

var clauseMarkers = map[string]struct{}{
	"if": {}, "whether": {}, "because": {}, "when": {}, "while": {}, "unless": {},
}

const attachWindow = 4

// assignDependencies labels the token sequence in place. The pass is a
// fixed set of ordered positional rules over the coarse POS tags; every
// token starts at the generic dep with Head == Index, and each rule only
// claims tokens still unassigned, so the result is deterministic.
func assignDependencies(tokens []domain.Token) {
	if len(tokens) == 0 {
		return
	}

	relabelAuxiliaries(tokens)

	root := rootIndex(tokens)
	tokens[root].Dep = domain.DepRoot
	tokens[root].Head = root

	attachAuxiliaries(tokens, root)
	attachNegations(tokens, root)
	attachComparisonThan(tokens)
	attachComplements(tokens)
	attachConjuncts(tokens, root)
	attachSubjects(tokens, root)
	attachObjects(tokens)
	attachAdverbs(tokens)
	attachAdjectives(tokens)
	attachDeterminers(tokens)
	attachMarkers(tokens)
}

// relabelAuxiliaries reclassifies auxiliary verbs as AUX when a content
// verb follows within the window. Modal tags are already AUX from the
// tag mapping.
func relabelAuxiliaries(tokens []domain.Token) {
	for i := range tokens {
		if tokens[i].POS != domain.POSVerb {
			continue
		}
		if _, ok := auxiliaryLemmas[tokens[i].Lemma]; !ok {
			continue
		}
		if governedVerb(tokens, i) >= 0 {
			tokens[i].POS = domain.POSAux
		}
	}
}

// governedVerb scans forward from an auxiliary candidate for the content
// verb it supports, skipping interposed subjects, adverbs and particles.
func governedVerb(tokens []domain.Token, aux int) int {
	for j := aux + 1; j <= aux+attachWindow && j < len(tokens); j++ {
		switch tokens[j].POS {
		case domain.POSVerb:
			return j
		case domain.POSAdv, domain.POSPart, domain.POSPron, domain.POSNoun,
			domain.POSProp, domain.POSDet:
			continue
		default:
			return -1
		}
	}
	return -1
}

func rootIndex(tokens []domain.Token) int {
	for i := range tokens {
		if tokens[i].POS == domain.POSVerb {
			return i
		}
	}
	for i := range tokens {
		if tokens[i].POS == domain.POSAux {
			return i
		}
	}
	for i := range tokens {
		if tokens[i].POS == domain.POSNoun || tokens[i].POS == domain.POSProp {
			return i
		}
	}
	return 0
}

func attachAuxiliaries(tokens []domain.Token, root int) {
	for i := range tokens {
		if tokens[i].POS != domain.POSAux || tokens[i].Dep != domain.DepDep {
			continue
		}
		head := governedVerb(tokens, i)
		if head < 0 {
			head = root
		}
		if head == i {
			continue
		}
		tokens[i].Dep = domain.DepAux
		tokens[i].Head = head
	}
}

// attachNegations points "not"/"n't" at the content verb they negate:
// the nearest following verb, else the nearest preceding verb, else the
// clause root.
func attachNegations(tokens []domain.Token, root int) {
	for i := range tokens {
		if tokens[i].Dep != domain.DepDep {
			continue
		}
		if _, ok := negationSurface[tokens[i].Lower]; !ok {
			continue
		}
		head := nearestVerb(tokens, i, root)
		if head == i {
			continue
		}
		tokens[i].Dep = domain.DepNeg
		tokens[i].Head = head
	}
}

func nearestVerb(tokens []domain.Token, from, fallback int) int {
	for j := from + 1; j <= from+attachWindow && j < len(tokens); j++ {
		if tokens[j].POS == domain.POSVerb {
			return j
		}
	}
	for j := from - 1; j >= 0 && j >= from-attachWindow; j-- {
		if tokens[j].POS == domain.POSVerb || tokens[j].POS == domain.POSAux {
			return j
		}
	}
	return fallback
}

// attachComparisonThan hangs comparative "than" off the adjective it
// scopes, so comparison detection can find it as an adjective child.
func attachComparisonThan(tokens []domain.Token) {
	for i := range tokens {
		if tokens[i].Lower != "than" || tokens[i].Dep != domain.DepDep {
			continue
		}
		for j := i - 1; j >= 0 && j >= i-3; j-- {
			if tokens[j].POS == domain.POSAdj {
				tokens[i].Dep = domain.DepPrep
				tokens[i].Head = j
				break
			}
		}
	}
}

// attachComplements links infinitival complements: a verb followed by
// "to" and a second verb, with adverbs allowed between them.
func attachComplements(tokens []domain.Token) {
	for i := range tokens {
		if tokens[i].POS != domain.POSVerb {
			continue
		}
		if i+1 >= len(tokens) || tokens[i+1].Tag != "TO" {
			continue
		}
		for j := i + 2; j <= i+1+attachWindow && j < len(tokens); j++ {
			if tokens[j].POS == domain.POSAdv {
				continue
			}
			if tokens[j].POS == domain.POSVerb && tokens[j].Dep == domain.DepDep {
				tokens[j].Dep = domain.DepCcomp
				tokens[j].Head = i
				tokens[i+1].Dep = domain.DepAux
				tokens[i+1].Head = j
			}
			break
		}
	}
}

// attachConjuncts links a later verb to an earlier one across a
// coordinating conjunction.
func attachConjuncts(tokens []domain.Token, root int) {
	for i := range tokens {
		if tokens[i].POS != domain.POSVerb || tokens[i].Dep != domain.DepDep || i == root {
			continue
		}
		sawConj := false
	scan:
		for j := i - 1; j >= 0; j-- {
			switch tokens[j].POS {
			case domain.POSCconj:
				sawConj = true
			case domain.POSVerb:
				if sawConj {
					tokens[i].Dep = domain.DepConj
					tokens[i].Head = j
				}
				break scan
			}
		}
	}
}

// attachSubjects finds the nominal subject of the root and of every
// conjunct or complement verb: the nearest noun, proper noun or pronoun
// to the left, stopping at another verb.
func attachSubjects(tokens []domain.Token, root int) {
	for i := range tokens {
		if i != root && tokens[i].Dep != domain.DepConj && tokens[i].Dep != domain.DepCcomp {
			continue
		}
		if tokens[i].POS != domain.POSVerb && tokens[i].POS != domain.POSAux {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if tokens[j].POS == domain.POSVerb {
				break
			}
			nominal := tokens[j].POS == domain.POSNoun ||
				tokens[j].POS == domain.POSProp ||
				tokens[j].POS == domain.POSPron
			if nominal && tokens[j].Dep == domain.DepDep {
				tokens[j].Dep = domain.DepSubject
				tokens[j].Head = i
				break
			}
			if nominal {
				break
			}
		}
	}
}

// attachObjects scans right of each content verb for its direct object.
// A noun reached through a preposition becomes that preposition's
// object instead, and the scan ends at clause boundaries.
func attachObjects(tokens []domain.Token) {
	for i := range tokens {
		if tokens[i].POS != domain.POSVerb {
			continue
		}
		prep := -1
		for j := i + 1; j < len(tokens); j++ {
			tok := &tokens[j]
			if tok.POS == domain.POSVerb || tok.POS == domain.POSAux ||
				tok.POS == domain.POSCconj || tok.Tag == "TO" || tok.IsPunct && tok.Lower == "," {
				break
			}
			switch tok.POS {
			case domain.POSAdp:
				if tok.Dep == domain.DepDep {
					if _, marker := clauseMarkers[tok.Lower]; !marker {
						tok.Dep = domain.DepPrep
						tok.Head = i
						prep = j
					}
				}
			case domain.POSNoun, domain.POSProp, domain.POSPron:
				if tok.Dep != domain.DepDep {
					continue
				}
				if prep >= 0 {
					tok.Dep = domain.DepPobj
					tok.Head = prep
					prep = -1
					continue
				}
				tok.Dep = domain.DepObject
				tok.Head = i
			}
			if tok.Dep == domain.DepObject {
				break
			}
		}
	}
}

// attachAdverbs points adverbs at the nearest following verb or
// adjective, else the nearest preceding verb.
func attachAdverbs(tokens []domain.Token) {
	for i := range tokens {
		if tokens[i].POS != domain.POSAdv || tokens[i].Dep != domain.DepDep {
			continue
		}
		head := -1
		for j := i + 1; j <= i+3 && j < len(tokens); j++ {
			if tokens[j].POS == domain.POSVerb || tokens[j].POS == domain.POSAdj {
				head = j
				break
			}
		}
		if head < 0 {
			for j := i - 1; j >= 0 && j >= i-3; j-- {
				if tokens[j].POS == domain.POSVerb || tokens[j].POS == domain.POSAux {
					head = j
					break
				}
			}
		}
		if head < 0 || head == i {
			continue
		}
		tokens[i].Dep = domain.DepAdvMod
		tokens[i].Head = head
	}
}

// attachAdjectives links attributive adjectives to a following noun and
// predicative adjectives back to a copula.
func attachAdjectives(tokens []domain.Token) {
	for i := range tokens {
		if tokens[i].POS != domain.POSAdj || tokens[i].Dep != domain.DepDep {
			continue
		}
		attached := false
		for j := i + 1; j <= i+2 && j < len(tokens); j++ {
			if tokens[j].POS == domain.POSNoun || tokens[j].POS == domain.POSProp {
				tokens[i].Dep = domain.DepAmod
				tokens[i].Head = j
				attached = true
				break
			}
		}
		if attached {
			continue
		}
		for j := i - 1; j >= 0 && j >= i-3; j-- {
			if tokens[j].POS == domain.POSVerb && tokens[j].Lemma == "be" {
				tokens[i].Dep = domain.DepAcomp
				tokens[i].Head = j
				break
			}
		}
	}
}

func attachDeterminers(tokens []domain.Token) {
	for i := range tokens {
		if tokens[i].POS != domain.POSDet || tokens[i].Dep != domain.DepDep {
			continue
		}
		for j := i + 1; j <= i+3 && j < len(tokens); j++ {
			if tokens[j].POS == domain.POSNoun || tokens[j].POS == domain.POSProp {
				tokens[i].Dep = domain.DepDet
				tokens[i].Head = j
				break
			}
		}
	}
}

// attachMarkers links subordinating conjunctions to the verb of the
// clause they introduce.
func attachMarkers(tokens []domain.Token) {
	for i := range tokens {
		if tokens[i].Dep != domain.DepDep {
			continue
		}
		if _, ok := clauseMarkers[strings.ToLower(tokens[i].Lower)]; !ok {
			continue
		}
		for j := i + 1; j < len(tokens); j++ {
			if tokens[j].POS == domain.POSVerb {
				tokens[i].Dep = domain.DepMark
				tokens[i].Head = j
				break
			}
		}
	}
}
