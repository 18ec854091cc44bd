package repositories

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Dosada05/swiss-tournament/models"
)

type rosterFile struct {
	Players []rosterEntry `yaml:"players"`
}

type rosterEntry struct {
	ID        string `yaml:"id"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	BirthDate string `yaml:"birth_date"`
}

// LoadRosterFile reads a YAML roster:
//
//	players:
//	  - id: AB12345
//	    first_name: Ada
//	    last_name: Lovelace
//	    birth_date: 1815-12-10
func LoadRosterFile(path string) ([]*models.Participant, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}
	return ParseRoster(raw)
}

func ParseRoster(raw []byte) ([]*models.Participant, error) {
	var file rosterFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Players))
	players := make([]*models.Participant, 0, len(file.Players))
	for i, e := range file.Players {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return nil, fmt.Errorf("roster entry %d: id is required", i+1)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("roster entry %d: duplicate id %s", i+1, id)
		}
		seen[id] = struct{}{}

		p := &models.Participant{
			ID:        id,
			FirstName: strings.TrimSpace(e.FirstName),
			LastName:  strings.TrimSpace(e.LastName),
		}
		if e.BirthDate != "" {
			birth, err := time.Parse(time.DateOnly, e.BirthDate)
			if err != nil {
				return nil, fmt.Errorf("roster entry %d: invalid birth_date %q: %w", i+1, e.BirthDate, err)
			}
			p.BirthDate = birth
		}
		players = append(players, p)
	}
	return players, nil
}
