package dictionary

// Candidates is anything that yields candidates until io.EOF.
type Candidates interface {
	Next() (string, error)
	Close() error
}

// Partition is the round-robin share of a source owned by one worker: the
// candidates at positions p where p % Size == Rank.
type Partition struct {
	src  Candidates
	rank int
	size int
	pos  int
}

func NewPartition(src Candidates, rank, size int) *Partition {
	if size < 1 {
		size = 1
	}
	return &Partition{src: src, rank: rank, size: size}
}

func (p *Partition) Next() (string, error) {
	for {
		candidate, err := p.src.Next()
		if err != nil {
			return "", err
		}
		pos := p.pos
		p.pos++
		if pos%p.size == p.rank {
			return candidate, nil
		}
	}
}

func (p *Partition) Rank() int {
	return p.rank
}

func (p *Partition) Close() error {
	return p.src.Close()
}

var _ Candidates = (*Source)(nil)
var _ Candidates = (*Partition)(nil)
