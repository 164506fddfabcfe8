// Package mongostore keeps match reports in a MongoDB collection. A report's
// _id is derived from job and rank, so the first report of a rank wins.
package mongostore

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ykhdr/crack-dict/internal/coordination"
)

const ReportCollection = "reports"

type document struct {
	ID                  string `bson:"_id"`
	coordination.Report `bson:",inline"`
}

func documentID(jobID string, rank int) string {
	return jobID + ":" + strconv.Itoa(rank)
}

type Coordinator struct {
	l          zerolog.Logger
	jobID      string
	collection *mongo.Collection
}

func New(database *mongo.Database, collection, jobID string) (*Coordinator, error) {
	if jobID == "" {
		return nil, coordination.ErrEmptyJobID
	}
	if collection == "" {
		collection = ReportCollection
	}
	return &Coordinator{
		jobID:      jobID,
		collection: database.Collection(collection),
		l: log.With().
			Str("domain", "coordination").
			Str("type", "mongo").
			Str("job-id", jobID).
			Logger(),
	}, nil
}

func (c *Coordinator) filter() bson.M {
	return bson.M{"job_id": c.jobID}
}

func (c *Coordinator) Status(ctx context.Context) (bool, error) {
	n, err := c.collection.CountDocuments(ctx, c.filter(), options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(coordination.ErrUnavailable, err.Error())
	}
	return n > 0, nil
}

func (c *Coordinator) Report(ctx context.Context, r coordination.Report) error {
	r.JobID = c.jobID
	doc := document{ID: documentID(c.jobID, r.Rank), Report: r}
	if _, err := c.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.l.Debug().Int("rank", r.Rank).Msg("rank already reported")
			return nil
		}
		return errors.Wrap(coordination.ErrUnavailable, err.Error())
	}
	return nil
}

func (c *Coordinator) Resolve(ctx context.Context) (coordination.Report, bool, error) {
	var doc document
	opts := options.FindOne().SetSort(bson.D{{Key: "rank", Value: 1}})
	err := c.collection.FindOne(ctx, c.filter(), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return coordination.Report{}, false, nil
	}
	if err != nil {
		return coordination.Report{}, false, errors.Wrap(coordination.ErrUnavailable, err.Error())
	}
	return doc.Report, true, nil
}

func (c *Coordinator) Purge(ctx context.Context) error {
	res, err := c.collection.DeleteMany(ctx, c.filter())
	if err != nil {
		return errors.Wrap(coordination.ErrUnavailable, err.Error())
	}
	c.l.Debug().Int64("deleted", res.DeletedCount).Msg("job reports purged")
	return nil
}

// Close does not disconnect the shared client.
func (c *Coordinator) Close() error {
	return nil
}

var (
	_ coordination.Coordinator = (*Coordinator)(nil)
	_ coordination.Purger      = (*Coordinator)(nil)
)
