package filters

import (
	"github.com/reviewpulse/reviewpulse/internal/process/textprep"
)

// Word polarity weights in [-1, 1]. The lexicon covers the vocabulary that
// actually shows up in app and product reviews.
var sentimentLexicon = map[string]float64{
	"great": 0.8, "excellent": 0.9, "amazing": 0.9, "awesome": 0.9,
	"good": 0.6, "love": 0.8, "perfect": 0.9, "best": 0.8,
	"fantastic": 0.9, "wonderful": 0.8, "helpful": 0.6, "easy": 0.5,
	"smooth": 0.5, "fast": 0.4, "reliable": 0.6, "useful": 0.5,
	"nice": 0.5, "works": 0.3, "work": 0.3, "stable": 0.5,
	"intuitive": 0.5, "load": 0.2, "loads": 0.2,

	"bad": -0.6, "terrible": -0.9, "awful": -0.9, "horrible": -0.9,
	"worst": -0.9, "hate": -0.8, "broken": -0.7, "useless": -0.8,
	"crash": -0.7, "crashes": -0.7, "crashing": -0.7, "crashed": -0.7,
	"bug": -0.5, "bugs": -0.5, "buggy": -0.6, "glitch": -0.5,
	"slow": -0.5, "laggy": -0.5, "lag": -0.5, "freeze": -0.6,
	"freezes": -0.6, "frozen": -0.6, "unusable": -0.8, "annoying": -0.6,
	"frustrating": -0.7, "disappointing": -0.7, "disappointed": -0.7,
	"fail": -0.6, "fails": -0.6, "failed": -0.6, "error": -0.5,
	"errors": -0.5, "problem": -0.5, "problems": -0.5, "issue": -0.4,
	"issues": -0.4, "scam": -0.9, "waste": -0.7, "poor": -0.6,
	"garbage": -0.8, "trash": -0.8, "refund": -0.5, "uninstall": -0.6,
	"uninstalled": -0.6, "stuck": -0.5, "wrong": -0.4, "missing": -0.4,
	"expensive": -0.4, "confusing": -0.5, "ugly": -0.5,
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "dont": {}, "don't": {},
	"cant": {}, "can't": {}, "wont": {}, "won't": {}, "doesnt": {},
	"doesn't": {}, "didnt": {}, "didn't": {}, "isnt": {}, "isn't": {},
	"nothing": {},
}

// Polarity scores text in [-1, 1]. A negation word flips the sign of the
// following sentiment word. Unknown words contribute nothing; text with no
// sentiment words scores 0.
func Polarity(text string) float64 {
	tokens := textprep.Tokenize(textprep.Clean(text))
	if len(tokens) == 0 {
		return 0
	}

	var (
		sum     float64
		scored  int
		negated bool
	)

	for _, tok := range tokens {
		if _, ok := negations[tok]; ok {
			negated = true
			continue
		}

		weight, ok := sentimentLexicon[tok]
		if ok {
			if negated {
				weight = -weight
			}

			sum += weight
			scored++
		}

		negated = false
	}

	if scored == 0 {
		return 0
	}

	score := sum / float64(scored)
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}

	return score
}
