package service

import (
	"strings"
	"unicode/utf8"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"

	"github.com/anime-shed/label-inspector-go/internal/textnorm"
)

// TranscriptErrorRates compares a transcript with the text that is known to be on
// the label. Both are normalized first. Either rate is nil when the normalized
// reference is empty.
func TranscriptErrorRates(reference, transcript string) (wordRate, charRate *float64) {
	ref := textnorm.Normalize(reference)
	hyp := textnorm.Normalize(transcript)
	if ref == "" {
		return nil, nil
	}

	w := WordErrorRate(ref, hyp)
	c := CharacterErrorRate(ref, hyp)
	return &w, &c
}

// WordErrorRate is the word-level edit distance divided by the reference word count
func WordErrorRate(reference, transcript string) float64 {
	refWords := strings.Fields(reference)
	if len(refWords) == 0 {
		return 0
	}
	rate, _ := wer.WER(refWords, strings.Fields(transcript))
	return rate
}

// CharacterErrorRate is the character edit distance divided by the reference length
func CharacterErrorRate(reference, transcript string) float64 {
	n := utf8.RuneCountInString(reference)
	if n == 0 {
		return 0
	}
	return float64(levenshtein.Distance(reference, transcript)) / float64(n)
}
