package graph

import (
	"regexp"
	"strconv"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/errx"
)

// Feed page bounds.
const (
	MinTake     = 1
	MaxTake     = 50
	DefaultTake = 30
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// parseIntSafe accepts only plain decimal digits that fit in an int.
func parseIntSafe(value string) (int, bool) {
	if !digitsOnly.MatchString(value) {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return n, true
}

func applyTakeConstraints(lo, hi, value int) (int, error) {
	if value < lo || value > hi {
		return 0, errx.Errorf("graph.Feed", errx.Invalid,
			"'take' argument value '%d' is outside the valid range of '%d' to '%d'.", value, lo, hi)
	}
	return value, nil
}

func applySkipConstraints(skip *int) error {
	if skip != nil && *skip < 0 {
		return errx.Errorf("graph.Feed", errx.Invalid,
			"'skip' argument value '%d' must not be negative.", *skip)
	}
	return nil
}
