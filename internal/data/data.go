package data

import (
	"time"

	"github.com/replypilot/replypilot/internal/biz/repo"
	"github.com/replypilot/replypilot/platform"
)

// Repositories contains all repositories
type Repositories struct {
	Ledger repo.LedgerRepo
	Poster repo.PosterRepo
	Rules  repo.RuleRepo
}

// NewRepositories creates all repositories
func NewRepositories(baseURL, token string, postTimeout time.Duration, ledgerDBPath, rulesPath string) (*Repositories, error) {
	ledger, err := NewLedgerRepo(ledgerDBPath)
	if err != nil {
		return nil, err
	}

	client := platform.NewClient(baseURL, token, postTimeout)

	return &Repositories{
		Ledger: ledger,
		Poster: NewPosterRepo(client),
		Rules:  NewRuleRepo(rulesPath),
	}, nil
}
