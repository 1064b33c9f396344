package source

import (
	"context"

	"github.com/projecteru2/logview/types"
)

// Source is where the service log lives.
// Fetch returns a Data or Empty result, failures come back as error.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (types.PollResult, error)
	Clear(ctx context.Context) error
}

// Rewinder is a Source that keeps a read position between fetches.
// Rewind drops it so the next Fetch returns the whole log again.
type Rewinder interface {
	Rewind()
}
