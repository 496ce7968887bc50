package browse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/illmade-knight/go-catpedia/pkg/catalog"
)

// ErrUnknownSortOption is returned by ParseSortOption for unrecognized input.
var ErrUnknownSortOption = errors.New("browse: unknown sort option")

// SortOption selects how a breed list is ordered.
type SortOption string

const (
	SortNone             SortOption = "none"
	SortAffectionHigh    SortOption = "affection-high"
	SortAffectionLow     SortOption = "affection-low"
	SortEnergyHigh       SortOption = "energy-high"
	SortEnergyLow        SortOption = "energy-low"
	SortIntelligenceHigh SortOption = "intelligence-high"
	SortIntelligenceLow  SortOption = "intelligence-low"
	SortSocialHigh       SortOption = "social-high"
	SortSocialLow        SortOption = "social-low"
)

// sortKey describes a field/direction option.
type sortKey struct {
	field      func(catalog.Breed) int
	descending bool
}

var sortKeys = map[SortOption]sortKey{
	SortAffectionHigh:    {field: affection, descending: true},
	SortAffectionLow:     {field: affection},
	SortEnergyHigh:       {field: energy, descending: true},
	SortEnergyLow:        {field: energy},
	SortIntelligenceHigh: {field: intelligence, descending: true},
	SortIntelligenceLow:  {field: intelligence},
	SortSocialHigh:       {field: social, descending: true},
	SortSocialLow:        {field: social},
}

func affection(b catalog.Breed) int    { return b.AffectionLevel }
func energy(b catalog.Breed) int       { return b.EnergyLevel }
func intelligence(b catalog.Breed) int { return b.Intelligence }
func social(b catalog.Breed) int       { return b.SocialNeeds }

// SortOptions lists every option in display order.
func SortOptions() []SortOption {
	return []SortOption{
		SortNone,
		SortAffectionHigh, SortAffectionLow,
		SortEnergyHigh, SortEnergyLow,
		SortIntelligenceHigh, SortIntelligenceLow,
		SortSocialHigh, SortSocialLow,
	}
}

// ParseSortOption converts user input into a SortOption. The empty string
// means SortNone.
func ParseSortOption(s string) (SortOption, error) {
	opt := SortOption(strings.ToLower(strings.TrimSpace(s)))
	if opt == "" || opt == SortNone {
		return SortNone, nil
	}
	if _, ok := sortKeys[opt]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSortOption, s)
	}
	return opt, nil
}

func (o SortOption) String() string {
	return string(o)
}
