package devserver

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/practiz/internal/portal"
	"github.com/abhisek/practiz/internal/question"
	"github.com/abhisek/practiz/internal/reinforcement"
)

//go:embed fixture.json
var defaultFixture []byte

// FixtureUser is an account the dev server accepts. Either Password or
// PasswordHash (bcrypt) must be set.
type FixtureUser struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Password     string      `json:"password,omitempty"`
	PasswordHash string      `json:"passwordHash,omitempty"`
	Role         portal.Role `json:"role"`
	Grade        int         `json:"grade,omitempty"`
}

// FixturePaper lists question ids in paper order.
type FixturePaper struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	QuestionIDs []string `json:"questionIds"`
}

// Fixture is the data the dev server serves.
type Fixture struct {
	Config         portal.PublicConfig  `json:"config"`
	Users          []FixtureUser        `json:"users"`
	Questions      []json.RawMessage    `json:"questions"`
	Papers         []FixturePaper       `json:"papers"`
	Homeworks      []portal.Homework    `json:"homeworks"`
	Reinforcements []reinforcement.Rule `json:"reinforcements"`
}

// DefaultFixture returns the embedded demo data.
func DefaultFixture() (*Fixture, error) {
	return ParseFixture(defaultFixture)
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes and checks fixture data. Questions are validated
// the same way the client validates them, and plain passwords are hashed.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	raw, err := json.Marshal(f.Questions)
	if err != nil {
		return nil, err
	}
	qs, err := question.DecodeList(raw)
	if err != nil {
		return nil, fmt.Errorf("fixture questions: %w", err)
	}
	known := make(map[string]bool, len(qs))
	for _, q := range qs {
		known[q.ID] = true
	}

	papers := make(map[string]bool, len(f.Papers))
	for _, p := range f.Papers {
		for _, id := range p.QuestionIDs {
			if !known[id] {
				return nil, fmt.Errorf("paper %s: unknown question %s", p.ID, id)
			}
		}
		papers[p.ID] = true
	}
	for _, h := range f.Homeworks {
		if !papers[h.PaperID] {
			return nil, fmt.Errorf("homework %s: unknown paper %s", h.ID, h.PaperID)
		}
	}

	for i := range f.Users {
		u := &f.Users[i]
		if u.PasswordHash != "" {
			continue
		}
		if u.Password == "" {
			return nil, fmt.Errorf("user %s has no password", u.Username)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password of %s: %w", u.Username, err)
		}
		u.PasswordHash, u.Password = string(hash), ""
	}
	return &f, nil
}
