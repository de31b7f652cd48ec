package loansvc

import (
	"context"
	"time"

	loanrepo "github.com/RicardoJSequeda/bienestar-hub-sub000/repository/loan"
)

// Sweeper flips active loans past their due date to overdue. Driven by
// the periodic sweep in main, not by request traffic.
type Sweeper interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

type sweeper struct {
	r loanrepo.Repo
}

func NewSweeper(r loanrepo.Repo) Sweeper { return &sweeper{r: r} }

func (s *sweeper) MarkOverdue(ctx context.Context) (int64, error) {
	return s.r.MarkOverdue(ctx, time.Now().UTC())
}
