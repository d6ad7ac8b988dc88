// Package natsort ordonne des noms de fichiers "à la humaine" :
// les suites de chiffres sont comparées par valeur ("2-Intro" < "10-Advanced").
package natsort

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type chunk struct {
	digits bool
	// text est la forme comparée : valeur sans zéros de tête pour les nombres,
	// texte sans accents et replié en casse sinon.
	text string
}

// Compare renvoie -1, 0 ou +1. C'est un ordre total : Compare(a, b) == 0 ssi a == b.
//
// Clé primaire : suites de chiffres par valeur numérique (taille arbitraire),
// un nombre passe avant du texte, le texte est comparé sans casse ni accents.
// À clé primaire égale ("01" / "1", "a" / "A"), on départage sur les octets bruts.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	if c := comparePrimary(split(a), split(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Strings trie s en place.
func Strings(s []string) {
	slices.SortFunc(s, Compare)
}

// Sort trie items en place selon la clé renvoyée par key.
// Le tri est stable pour les clés identiques.
func Sort[T any](items []T, key func(T) string) {
	slices.SortStableFunc(items, func(x, y T) int {
		return Compare(key(x), key(y))
	})
}

func comparePrimary(a, b []chunk) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareChunk(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func compareChunk(a, b chunk) int {
	if a.digits != b.digits {
		if a.digits {
			return -1
		}
		return 1
	}
	if a.digits {
		// Sans zéros de tête : plus long = plus grand, puis ordre lexical.
		if len(a.text) != len(b.text) {
			if len(a.text) < len(b.text) {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(a.text, b.text)
}

func split(s string) []chunk {
	var out []chunk
	start := 0
	for start < len(s) {
		digits := isDigit(s[start])
		end := start + 1
		for end < len(s) && isDigit(s[end]) == digits {
			end++
		}
		part := s[start:end]
		if digits {
			out = append(out, chunk{digits: true, text: trimZeros(part)})
		} else {
			out = append(out, chunk{text: fold(part)})
		}
		start = end
	}
	return out
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func trimZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" {
		return "0"
	}
	return t
}

// fold retire les diacritiques puis replie la casse ("Été" → "ete").
func fold(s string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(tr, s); err == nil {
		s = out
	}
	return cases.Fold().String(s)
}
