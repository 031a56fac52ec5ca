package srs

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-decks/internal/domain"
)

// ErrInvalidParams is returned by NewParams when an override is out of range.
var ErrInvalidParams = errors.New("invalid srs parameters")

// Params defines the tunable constants of the ease/interval model.
type Params struct {
	// Quality maps each outcome to its numeric weight. An outcome weighted 0
	// resets the interval without touching the ease factor.
	Quality map[domain.ReviewOutcome]int

	// K scales how far a review moves the ease factor per quality point.
	K float64

	// Midpoint is the quality at which the ease factor stays unchanged.
	Midpoint int

	// EaseFloor is the lowest ease factor a review can produce.
	EaseFloor float64

	// StartingEase is assigned to newly created cards.
	StartingEase float64

	// MaxInterval caps the interval in days a review can produce.
	MaxInterval int
}

// ParamsConfig overrides selected defaults. Zero values keep the default.
type ParamsConfig struct {
	AgainQuality int
	HardQuality  int
	GoodQuality  int
	EasyQuality  int
	K            float64
	Midpoint     int
	EaseFloor    float64
	StartingEase float64
	MaxInterval  int
}

// NewDefaultParams returns the current generation of the model:
// weights {0, 2, 6, 10}, K=0.15, midpoint 5, floor 1.1, starting ease 2.5
// and intervals capped at domain.MaxInterval days.
func NewDefaultParams() *Params {
	return &Params{
		Quality: map[domain.ReviewOutcome]int{
			domain.ReviewOutcomeAgain: 0,
			domain.ReviewOutcomeHard:  2,
			domain.ReviewOutcomeGood:  6,
			domain.ReviewOutcomeEasy:  10,
		},
		K:            0.15,
		Midpoint:     5,
		EaseFloor:    domain.MinEaseFactor,
		StartingEase: 2.5,
		MaxInterval:  domain.MaxInterval,
	}
}

// NewParams applies cfg on top of the defaults and validates the result.
func NewParams(cfg ParamsConfig) (*Params, error) {
	params := NewDefaultParams()

	if cfg.AgainQuality != 0 {
		params.Quality[domain.ReviewOutcomeAgain] = cfg.AgainQuality
	}
	if cfg.HardQuality != 0 {
		params.Quality[domain.ReviewOutcomeHard] = cfg.HardQuality
	}
	if cfg.GoodQuality != 0 {
		params.Quality[domain.ReviewOutcomeGood] = cfg.GoodQuality
	}
	if cfg.EasyQuality != 0 {
		params.Quality[domain.ReviewOutcomeEasy] = cfg.EasyQuality
	}
	if cfg.K != 0 {
		params.K = cfg.K
	}
	if cfg.Midpoint != 0 {
		params.Midpoint = cfg.Midpoint
	}
	if cfg.EaseFloor != 0 {
		params.EaseFloor = cfg.EaseFloor
	}
	if cfg.StartingEase != 0 {
		params.StartingEase = cfg.StartingEase
	}
	if cfg.MaxInterval != 0 {
		params.MaxInterval = cfg.MaxInterval
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// Validate checks that the parameters describe a usable model.
func (p *Params) Validate() error {
	for _, o := range domain.ReviewOutcomes {
		q, ok := p.Quality[o]
		if !ok {
			return fmt.Errorf("%w: missing quality for %q", ErrInvalidParams, o)
		}
		if q < 0 {
			return fmt.Errorf("%w: negative quality for %q", ErrInvalidParams, o)
		}
	}
	if p.K <= 0 {
		return fmt.Errorf("%w: K must be positive", ErrInvalidParams)
	}
	if p.EaseFloor < domain.MinEaseFactor {
		return fmt.Errorf("%w: ease floor must be at least %.1f", ErrInvalidParams, domain.MinEaseFactor)
	}
	if p.StartingEase < p.EaseFloor {
		return fmt.Errorf("%w: starting ease below floor", ErrInvalidParams)
	}
	if p.MaxInterval < 1 || p.MaxInterval > domain.MaxInterval {
		return fmt.Errorf("%w: max interval must be between 1 and %d", ErrInvalidParams, domain.MaxInterval)
	}
	return nil
}
