// Package folio produces the human-readable sequence identifiers assigned
// to service orders: OS-YYYYMMDD-<initial><nnn>, counting up within a day
// and resetting at midnight.
package folio

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ErrConflict is returned when the retry budget for folio collisions is
// exhausted; the caller should retry the whole create operation.
var ErrConflict = errors.New("folio conflict: retry budget exhausted")

// maxAttempts bounds the collision retries in Assign.
const maxAttempts = 5

// Store is the slice of the record store the generator needs.
type Store interface {
	LatestFolioWithPrefix(ctx context.Context, prefix string) (string, error)
}

type Generator struct {
	store Store
}

func New(store Store) *Generator {
	return &Generator{store: store}
}

// Next computes the next folio for the given day and engineer. The counter
// continues from the most recent folio sharing today's prefix; an
// unparseable suffix resets it to 1.
func (g *Generator) Next(ctx context.Context, now time.Time, engineerName string) (string, error) {
	prefix := "OS-" + now.Format("20060102")
	last, err := g.store.LatestFolioWithPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("folio lookup: %w", err)
	}
	return format(prefix, initialOf(engineerName), nextCounter(last)), nil
}

// Assign runs fn with candidate folios until one sticks. fn must persist the
// order under the candidate folio and return conflict=true when the storage
// layer's uniqueness constraint rejected it.
func (g *Generator) Assign(ctx context.Context, now time.Time, engineerName string, fn func(folio string) (conflict bool, err error)) (string, error) {
	prefix := "OS-" + now.Format("20060102")
	initial := initialOf(engineerName)

	last, err := g.store.LatestFolioWithPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("folio lookup: %w", err)
	}
	counter := nextCounter(last)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := format(prefix, initial, counter)
		conflict, err := fn(candidate)
		if err != nil {
			return "", err
		}
		if !conflict {
			return candidate, nil
		}
		counter++
	}
	return "", ErrConflict
}

func format(prefix, initial string, counter int) string {
	return fmt.Sprintf("%s-%s%03d", prefix, initial, counter)
}

func initialOf(engineerName string) string {
	name := strings.TrimSpace(engineerName)
	if name == "" {
		return "X"
	}
	return strings.ToUpper(string([]rune(name)[0]))
}

// nextCounter parses the numeric part after the leading letter of the last
// folio's trailing dash-segment. Any parse failure restarts the day at 1.
func nextCounter(lastFolio string) int {
	if lastFolio == "" {
		return 1
	}
	segments := strings.Split(lastFolio, "-")
	suffix := segments[len(segments)-1]
	if len(suffix) < 2 || !unicode.IsLetter([]rune(suffix)[0]) {
		return 1
	}
	n, err := strconv.Atoi(suffix[1:])
	if err != nil {
		return 1
	}
	return n + 1
}
