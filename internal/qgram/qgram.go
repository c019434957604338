// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/hyperdiff/blob/master/LICENSE.txt.

// Package qgram implements a normalized q-gram distance between two
// strings, used by the ChangeDistiller leaves matcher to score label
// similarity. The functions here are pure: any caching is an explicit
// [Cache] the caller owns and invalidates, never hidden global state.
package qgram

// Multiset counts occurrences of each q-gram (a q-length substring) in a
// string.
type Multiset map[string]int

// Grams returns the multiset of q-length substrings of s. Strings shorter
// than q produce a single gram equal to s itself, so that very short
// labels still compare meaningfully against one another.
func Grams(s string, q int) Multiset {
	if q <= 0 {
		q = 1
	}
	if len(s) < q {
		return Multiset{s: 1}
	}
	m := make(Multiset, len(s)-q+1)
	for i := 0; i+q <= len(s); i++ {
		m[s[i:i+q]]++
	}
	return m
}

// Distance returns the number of q-grams present in one multiset but not
// matched in the other, counting multiplicity: for each gram, the absolute
// difference between its counts in a and b.
func Distance(a, b Multiset) int {
	seen := make(map[string]bool, len(a))
	d := 0
	for g, ca := range a {
		cb := a2(b, g)
		if diff := ca - cb; diff > 0 {
			d += diff
		} else {
			d += -diff
		}
		seen[g] = true
	}
	for g, cb := range b {
		if seen[g] {
			continue
		}
		d += cb
	}
	return d
}

func a2(m Multiset, g string) int {
	return m[g]
}

// Similarity returns a normalized similarity in [0,1] between two strings
// using q-length grams: 1 - distance/maxPossibleDistance. Identical strings
// (including two empty strings) score 1.
func Similarity(s1, s2 string, q int) float64 {
	return SimilarityGrams(Grams(s1, q), Grams(s2, q))
}

// SimilarityGrams is [Similarity] over pre-computed multisets, letting a
// caller reuse grams across many comparisons.
func SimilarityGrams(a, b Multiset) float64 {
	total := count(a) + count(b)
	if total == 0 {
		return 1
	}
	d := Distance(a, b)
	if d >= total {
		return 0
	}
	return 1 - float64(d)/float64(total)
}

func count(m Multiset) int {
	n := 0
	for _, c := range m {
		n += c
	}
	return n
}

// Cache memoizes the gram multiset of a string, keyed by the string value.
// It models the EnableNgramCaching/ReuseQgramObject configuration knobs
// as an explicit object the caller owns, rather than a package-level cache.
type Cache struct {
	q     int
	grams map[string]Multiset
}

// NewCache returns a Cache producing q-length grams.
func NewCache(q int) *Cache {
	return &Cache{q: q, grams: make(map[string]Multiset)}
}

// Grams returns the (possibly cached) q-gram multiset of s.
func (c *Cache) Grams(s string) Multiset {
	if g, ok := c.grams[s]; ok {
		return g
	}
	g := Grams(s, c.q)
	c.grams[s] = g
	return g
}

// Similarity returns the normalized similarity between s1 and s2 using this
// cache's gram size, reusing any previously computed multisets.
func (c *Cache) Similarity(s1, s2 string) float64 {
	return SimilarityGrams(c.Grams(s1), c.Grams(s2))
}
