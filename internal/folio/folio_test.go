package folio

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeFolioStore struct {
	latest map[string]string
	err    error
}

func (f *fakeFolioStore) LatestFolioWithPrefix(_ context.Context, prefix string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.latest[prefix], nil
}

func TestNext(t *testing.T) {
	day := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	nextDay := day.AddDate(0, 0, 1)

	tests := []struct {
		name     string
		latest   map[string]string
		now      time.Time
		engineer string
		want     string
	}{
		{
			name:     "first order of the day",
			latest:   map[string]string{},
			now:      day,
			engineer: "Rivera",
			want:     "OS-20250101-R001",
		},
		{
			name:     "increments from the latest folio",
			latest:   map[string]string{"OS-20250101": "OS-20250101-R007"},
			now:      day,
			engineer: "Rivera",
			want:     "OS-20250101-R008",
		},
		{
			name:     "empty engineer defaults to X",
			latest:   map[string]string{},
			now:      day,
			engineer: "",
			want:     "OS-20250101-X001",
		},
		{
			name:     "lowercase initial is uppercased",
			latest:   map[string]string{},
			now:      day,
			engineer: "ana",
			want:     "OS-20250101-A001",
		},
		{
			name:     "counter resets across the day boundary",
			latest:   map[string]string{"OS-20250101": "OS-20250101-R099"},
			now:      nextDay,
			engineer: "Rivera",
			want:     "OS-20250102-R001",
		},
		{
			name:     "garbled suffix resets to 1",
			latest:   map[string]string{"OS-20250101": "OS-20250101-corrupt"},
			now:      day,
			engineer: "Rivera",
			want:     "OS-20250101-R001",
		},
		{
			name:     "zero padding past ten",
			latest:   map[string]string{"OS-20250101": "OS-20250101-M009"},
			now:      day,
			engineer: "Mora",
			want:     "OS-20250101-M010",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(&fakeFolioStore{latest: tt.latest})
			got, err := g.Next(context.Background(), tt.now, tt.engineer)
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Next() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAssignRetriesOnConflict(t *testing.T) {
	g := New(&fakeFolioStore{latest: map[string]string{"OS-20250101": "OS-20250101-R003"}})
	day := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	var attempts []string
	folio, err := g.Assign(context.Background(), day, "Rivera", func(candidate string) (bool, error) {
		attempts = append(attempts, candidate)
		// Simulate two concurrent writers having claimed 004 and 005.
		return len(attempts) < 3, nil
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if folio != "OS-20250101-R006" {
		t.Errorf("Assign() = %q, want OS-20250101-R006", folio)
	}
	if len(attempts) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(attempts))
	}
}

func TestAssignExhaustsBudget(t *testing.T) {
	g := New(&fakeFolioStore{latest: map[string]string{}})
	day := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	_, err := g.Assign(context.Background(), day, "Rivera", func(string) (bool, error) {
		return true, nil
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestAssignPropagatesWriteError(t *testing.T) {
	g := New(&fakeFolioStore{latest: map[string]string{}})
	day := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	boom := errors.New("boom")

	_, err := g.Assign(context.Background(), day, "Rivera", func(string) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
}
