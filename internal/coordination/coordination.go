// Package coordination defines the cluster-wide "has anyone found it?"
// primitive used by distributed workers, and an in-process implementation.
package coordination

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnavailable wraps transport failures. Callers treat it as "no match
// reported yet" and keep scanning.
var ErrUnavailable = errors.New("coordination primitive unavailable")

// ErrEmptyJobID is returned by shared backends given no job scope, which
// would mix the reports of unrelated jobs.
var ErrEmptyJobID = errors.New("empty job id")

// Report is one worker's match.
type Report struct {
	JobID     string `json:"job_id" bson:"job_id"`
	Rank      int    `json:"rank" bson:"rank"`
	Plaintext string `json:"plaintext" bson:"plaintext"`
}

type Coordinator interface {
	// Status reports whether any worker has recorded a match.
	Status(ctx context.Context) (bool, error)
	// Report records a local match and makes it visible to peers.
	Report(ctx context.Context, r Report) error
	// Resolve returns the authoritative report: the one with the lowest rank.
	Resolve(ctx context.Context) (Report, bool, error)
	Close() error
}

// Purger is implemented by backends whose reports outlive the process.
// Purge deletes every report of the job.
type Purger interface {
	Purge(ctx context.Context) error
}

// JobScope is the key reports of one job are stored under. A job id reused
// for another target gets a separate scope.
func JobScope(jobID, target string) string {
	if jobID == "" {
		return ""
	}
	return jobID + "/" + strings.ToLower(strings.TrimSpace(target))
}

// Lowest picks the report with the lowest rank.
func Lowest(reports []Report) (Report, bool) {
	if len(reports) == 0 {
		return Report{}, false
	}
	sorted := append([]Report(nil), reports...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rank < sorted[j].Rank
	})
	return sorted[0], true
}
