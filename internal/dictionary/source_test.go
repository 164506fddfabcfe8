package dictionary_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykhdr/crack-dict/internal/dictionary"
)

func TestNextStripsOneTerminator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"trailing newline", "alpha\nsecret\n", []string{"alpha", "secret"}},
		{"no final newline", "alpha\nsecret", []string{"alpha", "secret"}},
		{"crlf", "alpha\r\nsecret\r\n", []string{"alpha", "secret"}},
		{"empty lines kept", "\n\nx\n", []string{"", "", "x"}},
		{"single empty line", "\n", []string{""}},
		{"only one terminator removed", "a\n\n", []string{"a", ""}},
		{"empty input", "", nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := drain(dictionary.NewSource(strings.NewReader(tt.input)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextAfterEOF(t *testing.T) {
	t.Parallel()

	src := dictionary.NewSource(strings.NewReader("one"))
	c, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, "one", c)
	assert.Equal(t, 1, src.Line())

	_, err = src.Next()
	require.ErrorIs(t, err, io.EOF)
	_, err = src.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	_, err := dictionary.Open(filepath.Join(t.TempDir(), "missing.txt"))
	require.ErrorIs(t, err, dictionary.ErrOpen)
}

func TestOpenReadsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nhunter2\nomega"), 0o600))

	src, err := dictionary.Open(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, src.Close()) }()

	got, err := drain(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "hunter2", "omega"}, got)
}

func TestPartitionRoundRobin(t *testing.T) {
	t.Parallel()

	input := "w0\nw1\nw2\nw3\nw4\nw5\nw6\n"
	var all []string
	for rank := 0; rank < 3; rank++ {
		p := dictionary.NewPartition(dictionary.NewSource(strings.NewReader(input)), rank, 3)
		assert.Equal(t, rank, p.Rank())
		got, err := drain(p)
		require.NoError(t, err)
		all = append(all, got...)
		switch rank {
		case 0:
			assert.Equal(t, []string{"w0", "w3", "w6"}, got)
		case 1:
			assert.Equal(t, []string{"w1", "w4"}, got)
		case 2:
			assert.Equal(t, []string{"w2", "w5"}, got)
		}
	}
	assert.ElementsMatch(t, []string{"w0", "w1", "w2", "w3", "w4", "w5", "w6"}, all)
}

func TestPartitionSizeOne(t *testing.T) {
	t.Parallel()

	p := dictionary.NewPartition(dictionary.NewSource(strings.NewReader("a\nb\n")), 0, 0)
	got, err := drain(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func drain(c dictionary.Candidates) ([]string, error) {
	var out []string
	for {
		candidate, err := c.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, candidate)
	}
}
