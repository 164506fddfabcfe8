package mongostore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ykhdr/crack-dict/internal/coordination"
)

func TestDocumentID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "job-1:0", documentID("job-1", 0))
	assert.NotEqual(t, documentID("job-1", 10), documentID("job-11", 0))
}

func TestDocumentInlinesReport(t *testing.T) {
	t.Parallel()

	doc := document{
		ID:     documentID("job", 3),
		Report: coordination.Report{JobID: "job", Rank: 3, Plaintext: "hunter2"},
	}
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, "job:3", m["_id"])
	assert.Equal(t, "job", m["job_id"])
	assert.Equal(t, "hunter2", m["plaintext"])

	var back document
	require.NoError(t, bson.Unmarshal(raw, &back))
	assert.Equal(t, doc, back)
}

func TestNewRejectsEmptyJobID(t *testing.T) {
	t.Parallel()

	_, err := New(nil, "", coordination.JobScope("", "abc"))
	require.ErrorIs(t, err, coordination.ErrEmptyJobID)
}

func TestDocumentIDSeparatesTargets(t *testing.T) {
	t.Parallel()

	a := documentID(coordination.JobScope("job", "aaaa"), 0)
	b := documentID(coordination.JobScope("job", "bbbb"), 0)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "job/aaaa:0", a)
}
