// Package report prints job progress and verdicts for a human.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/ykhdr/crack-dict/internal/hashcrack/verdict"
)

var rule = strings.Repeat("-", 129)

// Reporter ignores write errors: output never affects a verdict.
type Reporter struct {
	w       io.Writer
	verbose bool
}

func NewReporter(w io.Writer, verbose bool) *Reporter {
	return &Reporter{w: w, verbose: verbose}
}

// Start prints the job banner in verbose mode.
func (r *Reporter) Start(target, dictionary string) {
	if !r.verbose {
		return
	}
	r.printf("\n>>> Using dictionary path: %s\n\n", dictionary)
	r.printf("\n%s\n", rule)
	r.printf("Looking for this password hash:\t\t\t\t\t%s\n", target)
	r.printf("%s\n\n", rule)
}

func (r *Reporter) Verdict(v verdict.Verdict) {
	if v.IsFound() {
		if r.verbose {
			r.printf("\n>>> SUCCESS!! ")
		}
		r.printf("Password found: %s\n", v.Plaintext)
	} else {
		if r.verbose {
			r.printf("\n >>> ")
		}
		r.printf("Password not found.\n")
	}
	if r.verbose {
		r.printf("\n")
	}
}

func (r *Reporter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}
