// Package catalog answers service catalog queries: name search plus a
// derived category filter.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrUnknownCategory = errors.New("unknown category")

type Category string

const (
	Limpieza     Category = "limpieza"
	Plomeria     Category = "plomeria"
	Electricidad Category = "electricidad"
	Otros        Category = "otros"
)

// All lists categories in classification precedence order.
func All() []Category {
	return []Category{Limpieza, Plomeria, Electricidad, Otros}
}

// ParseCategory accepts "" (no filter) or one of the known categories, case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return "", nil
	}

	for _, known := range All() {
		if c == known {
			return c, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

type Classifier interface {
	Classify(name string) Category
}

type bucket struct {
	category Category
	keywords []string
}

// KeywordClassifier checks buckets in order; the first bucket with a keyword
// found at the start of a word of the lower-cased name wins, else Otros.
// Keywords are stems: "plomer" matches "Plomería", "aseo" does not match "Paseo".
type KeywordClassifier struct {
	buckets []bucket
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		buckets: []bucket{
			{Limpieza, []string{"limpieza", "aseo", "lavado", "planch"}},
			{Plomeria, []string{"plomer", "tuber", "fuga", "grifo", "fontaner", "desag"}},
			{Electricidad, []string{"electric", "eléctric", "enchufe", "cableado"}},
		},
	}
}

// WithKeywords appends keywords to an existing bucket or adds a new one after the others.
func (c *KeywordClassifier) WithKeywords(category Category, keywords ...string) *KeywordClassifier {
	for i := range c.buckets {
		if c.buckets[i].category == category {
			c.buckets[i].keywords = append(c.buckets[i].keywords, lowerAll(keywords)...)
			return c
		}
	}

	c.buckets = append(c.buckets, bucket{category: category, keywords: lowerAll(keywords)})
	return c
}

func (c *KeywordClassifier) Classify(name string) Category {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, b := range c.buckets {
		for _, kw := range b.keywords {
			for _, w := range words {
				if strings.HasPrefix(w, kw) {
					return b.category
				}
			}
		}
	}

	return Otros
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
