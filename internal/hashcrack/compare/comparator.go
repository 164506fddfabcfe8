package compare

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ykhdr/crack-dict/internal/digest"
)

// Comparator checks candidates against one target digest. It is safe for
// concurrent use.
type Comparator struct {
	digest   digest.Func
	target   string
	compared atomic.Int64

	diagMu sync.Mutex
	diag   io.Writer
}

type Option func(*Comparator)

// WithDiagnostics writes every candidate and its digest to w.
func WithDiagnostics(w io.Writer) Option {
	return func(c *Comparator) {
		c.diag = w
	}
}

func New(fn digest.Func, target string, opts ...Option) *Comparator {
	c := &Comparator{
		digest: fn,
		target: strings.ToLower(strings.TrimSpace(target)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare reports whether candidate digests to the target.
func (c *Comparator) Compare(candidate string) bool {
	c.compared.Add(1)
	sum := c.digest(candidate)
	if c.diag != nil {
		c.diagMu.Lock()
		_, _ = fmt.Fprintf(c.diag, "Password candidate from file:\t%16s\t--->\t%s\n", candidate, sum)
		c.diagMu.Unlock()
	}
	return sum == c.target
}

// Compared is the number of comparisons started so far.
func (c *Comparator) Compared() int64 {
	return c.compared.Load()
}

func (c *Comparator) Target() string {
	return c.target
}
