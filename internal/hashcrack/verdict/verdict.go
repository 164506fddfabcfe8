package verdict

import (
	"fmt"
	"sync/atomic"
)

type Status string

const (
	StatusNotFound Status = "NOT_FOUND"
	StatusFound    Status = "FOUND"
)

// Verdict is the outcome of one job: not found, or found with the plaintext.
type Verdict struct {
	Status    Status `json:"status"`
	Plaintext string `json:"plaintext,omitempty"`
}

func NotFound() Verdict {
	return Verdict{Status: StatusNotFound}
}

func Found(plaintext string) Verdict {
	return Verdict{Status: StatusFound, Plaintext: plaintext}
}

func (v Verdict) IsFound() bool {
	return v.Status == StatusFound
}

func (v Verdict) String() string {
	if v.IsFound() {
		return fmt.Sprintf("Found(%q)", v.Plaintext)
	}
	return "NotFound"
}

type State int32

const (
	StateIdle State = iota
	StateScanning
	StateDecided
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateDecided:
		return "decided"
	default:
		return "idle"
	}
}

// Cell is the single shared verdict slot of a job. The plaintext is installed
// at most once; later installs are discarded.
type Cell struct {
	found atomic.Pointer[string]
	state atomic.Int32
}

func NewCell() *Cell {
	return &Cell{}
}

// Begin moves the cell from idle to scanning.
func (c *Cell) Begin() {
	c.state.CompareAndSwap(int32(StateIdle), int32(StateScanning))
}

// TrySet installs plaintext if no match has been recorded yet and reports
// whether this call won.
func (c *Cell) TrySet(plaintext string) bool {
	if !c.found.CompareAndSwap(nil, &plaintext) {
		return false
	}
	c.state.Store(int32(StateDecided))
	return true
}

// Decided is the stop signal: true once a match has been recorded.
func (c *Cell) Decided() bool {
	return c.found.Load() != nil
}

// Finish moves the cell to decided and returns the final verdict.
func (c *Cell) Finish() Verdict {
	c.state.Store(int32(StateDecided))
	return c.Verdict()
}

func (c *Cell) Verdict() Verdict {
	if p := c.found.Load(); p != nil {
		return Found(*p)
	}
	return NotFound()
}

func (c *Cell) State() State {
	return State(c.state.Load())
}
