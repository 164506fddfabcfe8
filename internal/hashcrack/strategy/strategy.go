package strategy

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"github.com/ykhdr/crack-dict/internal/coordination"
	"github.com/ykhdr/crack-dict/internal/dictionary"
	"github.com/ykhdr/crack-dict/internal/hashcrack/compare"
	"github.com/ykhdr/crack-dict/internal/hashcrack/verdict"
)

// Request is everything a strategy needs for one search.
type Request struct {
	JobID      string
	Dictionary string
	Comparator *compare.Comparator
	// Coordinator is used by the distributed strategy only. Nil means an
	// in-process primitive.
	Coordinator coordination.Coordinator
	// Opened runs once every dictionary stream of the search is open, before
	// the first comparison.
	Opened func()
}

func (r *Request) opened() {
	if r.Opened != nil {
		r.Opened()
	}
}

// Strategy consumes the dictionary and ends decided with exactly one verdict.
// A dictionary that cannot be opened fails the search before any comparison.
type Strategy interface {
	Name() string
	Search(ctx context.Context, req *Request) (verdict.Verdict, error)
}

func closeAll[T dictionary.Candidates](sources []T) error {
	var merr *multierror.Error
	for _, src := range sources {
		if err := src.Close(); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}
