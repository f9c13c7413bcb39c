// Package similarity は紛失届と拾得届のマッチ度を算出するスコアラーを提供する。
//
// スコアはテキスト類似度・場所類似度・日付近接度の3要素の加重和で、常に[0,1]に収まる。
// 欠損している任意項目は中立値で補い、明示的な不一致より低く評価されることはない。
package similarity

import "fmt"

// Config はスコア算出の重みと閾値を保持する。
type Config struct {
	// 3要素の重み。合計で割って正規化するため、合計が1である必要はない。
	TextWeight     float64
	LocationWeight float64
	DateWeight     float64

	// テキスト要素内でのタイトルと本文の重み。
	TitleWeight       float64
	DescriptionWeight float64

	// 片側が未入力の場合に使う中立値。
	NeutralLocation float64
	NeutralDate     float64

	// 場所の部分一致（包含）と略記一致（部分列）のクレジット。
	LocationPartialCredit float64
	LocationFuzzyCredit   float64

	// 日付の減衰。HalfLifeDays日ごとにスコアが半減し、WindowDaysを超えると0になる。
	DateHalfLifeDays float64
	DateWindowDays   float64
}

// DefaultConfig はデフォルトの設定を返す。
func DefaultConfig() Config {
	return Config{
		TextWeight:            0.6,
		LocationWeight:        0.25,
		DateWeight:            0.15,
		TitleWeight:           0.7,
		DescriptionWeight:     0.3,
		NeutralLocation:       0.5,
		NeutralDate:           0.5,
		LocationPartialCredit: 0.6,
		LocationFuzzyCredit:   0.35,
		DateHalfLifeDays:      7,
		DateWindowDays:        30,
	}
}

// Validate は設定値の整合性を検証する。
func (c Config) Validate() error {
	if c.TextWeight < 0 || c.LocationWeight < 0 || c.DateWeight < 0 {
		return fmt.Errorf("weights must not be negative: text=%v location=%v date=%v",
			c.TextWeight, c.LocationWeight, c.DateWeight)
	}
	if c.TextWeight+c.LocationWeight+c.DateWeight <= 0 {
		return fmt.Errorf("sum of weights must be positive")
	}
	if c.TitleWeight < 0 || c.DescriptionWeight < 0 || c.TitleWeight+c.DescriptionWeight <= 0 {
		return fmt.Errorf("title/description weights must be non-negative with a positive sum")
	}
	for name, v := range map[string]float64{
		"neutral_location":        c.NeutralLocation,
		"neutral_date":            c.NeutralDate,
		"location_partial_credit": c.LocationPartialCredit,
		"location_fuzzy_credit":   c.LocationFuzzyCredit,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, v)
		}
	}
	if c.DateHalfLifeDays <= 0 || c.DateWindowDays < 0 {
		return fmt.Errorf("date half-life must be positive and window non-negative")
	}
	return nil
}
