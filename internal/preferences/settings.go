// Package preferences validates the ticker's client-side state: display
// settings and the read-later list. Malformed input never surfaces as an
// error to the user; it falls back to defaults.
package preferences

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"

	"news_ticker/internal/domain"
)

const (
	MinRefreshInterval     = 60
	MaxRefreshInterval     = 3600
	DefaultRefreshInterval = 300
)

var ErrInvalidSettings = errors.New("invalid settings")

type ScrollDirection string

const (
	ScrollHorizontal ScrollDirection = "horizontal"
	ScrollVertical   ScrollDirection = "vertical"
)

type ScrollSpeed string

const (
	ScrollSlow   ScrollSpeed = "slow"
	ScrollMedium ScrollSpeed = "medium"
	ScrollFast   ScrollSpeed = "fast"
)

type NewsSettings struct {
	Sources         []string        `json:"sources"`
	ScrollDirection ScrollDirection `json:"scrollDirection"`
	ScrollSpeed     ScrollSpeed     `json:"scrollSpeed"`
	RefreshInterval int             `json:"refreshInterval"` // seconds
}

func DefaultSettings() NewsSettings {
	return NewsSettings{
		Sources: lo.Map(domain.DefaultSources(), func(s domain.FeedSource, _ int) string {
			return s.Tag
		}),
		ScrollDirection: ScrollHorizontal,
		ScrollSpeed:     ScrollMedium,
		RefreshInterval: DefaultRefreshInterval,
	}
}

func (s NewsSettings) Validate() error {
	if s.Sources == nil {
		return fmt.Errorf("%w: sources is required", ErrInvalidSettings)
	}
	switch s.ScrollDirection {
	case ScrollHorizontal, ScrollVertical:
	default:
		return fmt.Errorf("%w: scrollDirection %q", ErrInvalidSettings, s.ScrollDirection)
	}
	switch s.ScrollSpeed {
	case ScrollSlow, ScrollMedium, ScrollFast:
	default:
		return fmt.Errorf("%w: scrollSpeed %q", ErrInvalidSettings, s.ScrollSpeed)
	}
	if s.RefreshInterval < MinRefreshInterval || s.RefreshInterval > MaxRefreshInterval {
		return fmt.Errorf("%w: refreshInterval %d out of [%d, %d]",
			ErrInvalidSettings, s.RefreshInterval, MinRefreshInterval, MaxRefreshInterval)
	}
	return nil
}

// WithKnownSources drops tags that are not in known, keeping order.
func (s NewsSettings) WithKnownSources(known []string) NewsSettings {
	s.Sources = lo.Filter(s.Sources, func(tag string, _ int) bool {
		return lo.Contains(known, tag)
	})
	return s
}

// settingsJSON accepts any JSON number for refreshInterval.
type settingsJSON struct {
	Sources         []string        `json:"sources"`
	ScrollDirection ScrollDirection `json:"scrollDirection"`
	ScrollSpeed     ScrollSpeed     `json:"scrollSpeed"`
	RefreshInterval float64         `json:"refreshInterval"`
}

// ParseSettings decodes and validates raw. Unknown keys are ignored. A
// fractional refreshInterval inside the allowed range is rounded to whole
// seconds.
func ParseSettings(raw []byte) (NewsSettings, error) {
	var in settingsJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return NewsSettings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if in.RefreshInterval < MinRefreshInterval || in.RefreshInterval > MaxRefreshInterval {
		return NewsSettings{}, fmt.Errorf("%w: refreshInterval %v out of [%d, %d]",
			ErrInvalidSettings, in.RefreshInterval, MinRefreshInterval, MaxRefreshInterval)
	}

	s := NewsSettings{
		Sources:         in.Sources,
		ScrollDirection: in.ScrollDirection,
		ScrollSpeed:     in.ScrollSpeed,
		RefreshInterval: int(math.Round(in.RefreshInterval)),
	}
	if err := s.Validate(); err != nil {
		return NewsSettings{}, err
	}
	return s, nil
}

// LoadSettings returns the stored settings, or the defaults when raw is
// empty, malformed or invalid.
func LoadSettings(raw []byte) NewsSettings {
	if len(raw) == 0 {
		return DefaultSettings()
	}
	s, err := ParseSettings(raw)
	if err != nil {
		return DefaultSettings()
	}
	return s
}
