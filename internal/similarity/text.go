package similarity

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// minTokenLength 以下の長さのトークンは捨てる（"a", "of", "in" など）。
const minTokenLength = 2

// markupPolicy は利用者入力からHTMLタグを除去する。
// bluemondayのPolicyは構築後は並行利用できる。
var markupPolicy = bluemonday.StrictPolicy()

// tokenSet は正規化済みトークンの集合。
type tokenSet map[string]struct{}

// normalizeText はタグを除去し、エスケープを戻して小文字化する。
func normalizeText(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToLower(html.UnescapeString(markupPolicy.Sanitize(s)))
}

// tokenize は文字・数字以外の境界で分割し、短いトークンを捨てた集合を返す。
func tokenize(parts ...string) tokenSet {
	set := make(tokenSet)
	for _, p := range parts {
		fields := strings.FieldsFunc(normalizeText(p), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, f := range fields {
			if utf8.RuneCountInString(f) <= minTokenLength {
				continue
			}
			set[f] = struct{}{}
		}
	}
	return set
}

// overlap はクエリ被覆率 |Q∩C|/|Q| とJaccard係数 |Q∩C|/|Q∪C| の平均を返す。
func overlap(query, candidate tokenSet) float64 {
	if len(query) == 0 || len(candidate) == 0 {
		return 0
	}

	inter := 0
	for tok := range query {
		if _, ok := candidate[tok]; ok {
			inter++
		}
	}
	if inter == 0 {
		return 0
	}

	coverage := float64(inter) / float64(len(query))
	jaccard := float64(inter) / float64(len(query)+len(candidate)-inter)
	return 0.5*coverage + 0.5*jaccard
}

// union は2つの集合の和集合を新しく作って返す。
func union(a, b tokenSet) tokenSet {
	out := make(tokenSet, len(a)+len(b))
	for t := range a {
		out[t] = struct{}{}
	}
	for t := range b {
		out[t] = struct{}{}
	}
	return out
}
