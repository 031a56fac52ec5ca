package srs

import (
	"fmt"

	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/shopspring/decimal"
)

// Schedule is the interval and ease factor a card holds after a review.
type Schedule struct {
	Interval   int     `json:"interval"`
	EaseFactor float64 `json:"ease_factor"`
}

// NextState computes the schedule that follows a review with the given
// outcome. It is pure: identical inputs always produce identical output.
//
// A zero-quality outcome drops the interval to 0 (due today) and keeps the
// ease factor. Any other outcome moves the ease by K*(quality-midpoint),
// clamped at the floor, and multiplies the interval (0 counts as 1) by the
// new ease. Intervals are rounded half away from zero and capped at
// params.MaxInterval.
func NextState(params *Params, interval int, ease float64, outcome domain.ReviewOutcome) (Schedule, error) {
	if !outcome.Valid() {
		return Schedule{}, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}
	quality, ok := params.Quality[outcome]
	if !ok {
		return Schedule{}, fmt.Errorf("%w: %q has no quality weight", ErrInvalidOutcome, outcome)
	}

	if quality == 0 {
		return Schedule{Interval: 0, EaseFactor: ease}, nil
	}

	newEase := calculateNewEase(params, ease, quality)
	newInterval := calculateNewInterval(interval, newEase, params.MaxInterval)

	easeValue, _ := newEase.Float64()
	return Schedule{Interval: newInterval, EaseFactor: easeValue}, nil
}

// calculateNewEase applies the quality adjustment and the floor.
func calculateNewEase(params *Params, ease float64, quality int) decimal.Decimal {
	adjustment := decimal.NewFromFloat(params.K).
		Mul(decimal.NewFromInt(int64(quality - params.Midpoint)))

	newEase := decimal.NewFromFloat(ease).Add(adjustment)
	floor := decimal.NewFromFloat(params.EaseFloor)
	if newEase.LessThan(floor) {
		return floor
	}
	return newEase
}

// calculateNewInterval multiplies the effective interval by the ease.
func calculateNewInterval(interval int, ease decimal.Decimal, maxInterval int) int {
	effective := interval
	if effective <= 0 {
		effective = 1
	}
	next := decimal.NewFromInt(int64(effective)).Mul(ease).Round(0)
	if limit := decimal.NewFromInt(int64(maxInterval)); next.GreaterThan(limit) {
		return maxInterval
	}
	return int(next.IntPart())
}
