package srs

import (
	"testing"

	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultParams(t *testing.T) {
	t.Parallel()

	p := NewDefaultParams()
	assert.Equal(t, 0, p.Quality[domain.ReviewOutcomeAgain])
	assert.Equal(t, 2, p.Quality[domain.ReviewOutcomeHard])
	assert.Equal(t, 6, p.Quality[domain.ReviewOutcomeGood])
	assert.Equal(t, 10, p.Quality[domain.ReviewOutcomeEasy])
	assert.Equal(t, 0.15, p.K)
	assert.Equal(t, 5, p.Midpoint)
	assert.Equal(t, 1.1, p.EaseFloor)
	assert.Equal(t, 2.5, p.StartingEase)
	assert.Equal(t, domain.MaxInterval, p.MaxInterval)
	assert.NoError(t, p.Validate())
}

func TestNewParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     ParamsConfig
		check   func(t *testing.T, p *Params)
		wantErr bool
	}{
		{
			name: "empty config keeps defaults",
			cfg:  ParamsConfig{},
			check: func(t *testing.T, p *Params) {
				assert.Equal(t, NewDefaultParams(), p)
			},
		},
		{
			name: "overrides apply",
			cfg:  ParamsConfig{K: 0.2, StartingEase: 2.0, EasyQuality: 12},
			check: func(t *testing.T, p *Params) {
				assert.Equal(t, 0.2, p.K)
				assert.Equal(t, 2.0, p.StartingEase)
				assert.Equal(t, 12, p.Quality[domain.ReviewOutcomeEasy])
			},
		},
		{name: "floor below absolute minimum", cfg: ParamsConfig{EaseFloor: 0.9}, wantErr: true},
		{name: "starting ease below floor", cfg: ParamsConfig{EaseFloor: 1.3, StartingEase: 1.2}, wantErr: true},
		{name: "negative K", cfg: ParamsConfig{K: -0.1}, wantErr: true},
		{name: "negative quality", cfg: ParamsConfig{HardQuality: -2}, wantErr: true},
		{
			name: "max interval override",
			cfg:  ParamsConfig{MaxInterval: 365},
			check: func(t *testing.T, p *Params) {
				assert.Equal(t, 365, p.MaxInterval)
			},
		},
		{name: "negative max interval", cfg: ParamsConfig{MaxInterval: -1}, wantErr: true},
		{name: "max interval above card limit", cfg: ParamsConfig{MaxInterval: domain.MaxInterval + 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := NewParams(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParams)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}
