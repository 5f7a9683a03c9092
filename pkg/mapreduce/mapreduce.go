// Package mapreduce counts keywords per page and merges the counts across a
// batch of pages.
package mapreduce

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Keyword is one aggregated word count.
type Keyword struct {
	Word  string `json:"word" yaml:"word"`
	Count int    `json:"count" yaml:"count"`
}

func (k Keyword) String() string {
	return fmt.Sprintf("%s:%d", k.Word, k.Count)
}

// Map generates a word frequency map for a single document's text. Words are
// lower-cased, stripped of surrounding punctuation, and stopwords, numbers
// and single letters are dropped.
func Map(text string) map[string]int {
	frequencies := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if !isKeyword(word) {
			continue
		}
		frequencies[word]++
	}
	return frequencies
}

// Reduce aggregates a slice of word frequency maps into a single map.
func Reduce(intermediate []map[string]int) map[string]int {
	finalResults := make(map[string]int)
	for _, counts := range intermediate {
		for word, count := range counts {
			finalResults[word] += count
		}
	}
	return finalResults
}

// TopKeywords returns the n most frequent words, ties broken alphabetically.
func TopKeywords(wordCounts map[string]int, n int) []Keyword {
	ss := make([]Keyword, 0, len(wordCounts))
	for k, v := range wordCounts {
		ss = append(ss, Keyword{Word: k, Count: v})
	}
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Count != ss[j].Count {
			return ss[i].Count > ss[j].Count
		}
		return ss[i].Word < ss[j].Word
	})

	if n < 0 {
		n = 0
	}
	if len(ss) > n {
		ss = ss[:n]
	}
	return ss
}

func isKeyword(word string) bool {
	if len([]rune(word)) < 2 {
		return false
	}
	if _, stop := stopwords[word]; stop {
		return false
	}
	for _, r := range word {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
