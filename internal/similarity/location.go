package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

// 略記一致とみなすための下限。
// 短すぎるパターンや長さ比の小さい組は部分列として偶然一致しやすい。
const (
	minFuzzyPatternLength = 3
	minFuzzyLengthRatio   = 0.4
)

// normalizeLocation は場所文字列を小文字化し、連続空白を1つにまとめる。
func normalizeLocation(s string) string {
	return strings.Join(strings.Fields(normalizeText(s)), " ")
}

// locationScore は2つの場所の類似度を返す。
// 完全一致=1、包含=partial、略記（部分列）一致=fuzzy、それ以外=0。
// どちらかが未入力の場合は中立値を返す。
func (s *Scorer) locationScore(query, candidate string) float64 {
	if query == "" || candidate == "" {
		return s.cfg.NeutralLocation
	}
	if query == candidate {
		return 1
	}
	if strings.Contains(candidate, query) || strings.Contains(query, candidate) {
		return s.cfg.LocationPartialCredit
	}
	if abbreviationMatch(query, candidate) || abbreviationMatch(candidate, query) {
		return s.cfg.LocationFuzzyCredit
	}
	return 0
}

// abbreviationMatch はpatternがtargetの略記（"engg bldg" と "engineering building" など）
// とみなせるかを判定する。
func abbreviationMatch(pattern, target string) bool {
	pl := utf8.RuneCountInString(pattern)
	tl := utf8.RuneCountInString(target)
	if pl < minFuzzyPatternLength || pl > tl {
		return false
	}
	if float64(pl)/float64(tl) < minFuzzyLengthRatio {
		return false
	}
	pr, _ := utf8.DecodeRuneInString(pattern)
	tr, _ := utf8.DecodeRuneInString(target)
	if pr != tr {
		return false
	}
	return len(fuzzy.Find(pattern, []string{target})) > 0
}
