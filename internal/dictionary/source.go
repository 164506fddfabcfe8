// Package dictionary streams password candidates from a newline-delimited word list.
package dictionary

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

var ErrOpen = errors.New("cannot open dictionary")

// Source is a single forward pass over a word list. It is not safe for
// concurrent use; exactly one goroutine may pull from it.
type Source struct {
	r      *bufio.Reader
	closer io.Closer
	line   int
}

// Open opens the dictionary at path. Failure wraps ErrOpen and must be
// treated as fatal for the whole job.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrOpen, "%s: %v", path, err)
	}
	return &Source{r: bufio.NewReader(f), closer: f}, nil
}

// NewSource reads candidates from r. If r is an io.Closer it is closed by Close.
func NewSource(r io.Reader) *Source {
	s := &Source{r: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Next returns the next candidate with one trailing line terminator removed.
// An empty line yields "". io.EOF marks the end of the stream.
func (s *Source) Next() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			s.line++
			return trimTerminator(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", errors.Wrapf(err, "read dictionary line %d", s.line+1)
	}
	s.line++
	return trimTerminator(line), nil
}

// Line is the number of candidates returned so far.
func (s *Source) Line() int {
	return s.line
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func trimTerminator(line string) string {
	if trimmed, ok := strings.CutSuffix(line, "\r\n"); ok {
		return trimmed
	}
	return strings.TrimSuffix(line, "\n")
}
