// Package fixture implements feed sources backed by JSON files on disk.
// It stands in for live scrapers in development and tests: drop candidate
// facts into a directory and every ingestion pass picks them up.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/factfeed/factfeed/pkg/common"
)

const (
	investmentsFile = "investments.json"
	eventsFile      = "events.json"
)

// Source reads candidate facts from a fixture directory. Missing files
// yield empty candidate lists, not errors; a directory with only
// investments.json is a valid investment-only feed.
type Source struct {
	dir string
}

// New returns a source over the given directory.
func New(dir string) *Source {
	return &Source{dir: dir}
}

func (s *Source) Name() string {
	return "fixture:" + s.dir
}

// FetchInvestments loads investments.json. The daysBack window is not
// applied here: fixtures deliver everything they contain and the
// validator plus store window decide what survives.
func (s *Source) FetchInvestments(_ context.Context, _ int) ([]common.Investment, error) {
	var investments []common.Investment
	if err := s.load(investmentsFile, &investments); err != nil {
		return nil, err
	}
	return investments, nil
}

// FetchEvents loads events.json.
func (s *Source) FetchEvents(_ context.Context, _ int) ([]common.Event, error) {
	var events []common.Event
	if err := s.load(eventsFile, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Source) load(name string, out any) error {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return nil
}
