package similarity

import (
	"math"
	"time"
)

// dateScore は2つの日付の近さを返す。
// 暦日差dに対して 0.5^(d/halfLife) で減衰し、ウィンドウを超えると0になる。
func (s *Scorer) dateScore(query *time.Time, candidate time.Time) float64 {
	if query == nil || query.IsZero() || candidate.IsZero() {
		return s.cfg.NeutralDate
	}

	days := dayDiff(*query, candidate)
	if days > s.cfg.DateWindowDays {
		return 0
	}
	return math.Pow(0.5, days/s.cfg.DateHalfLifeDays)
}

// dayDiff は2つの時刻の暦日差（UTC基準）の絶対値を返す。
func dayDiff(a, b time.Time) float64 {
	da := civilDate(a)
	db := civilDate(b)
	d := da.Sub(db).Hours() / 24
	return math.Abs(math.Round(d))
}

func civilDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
