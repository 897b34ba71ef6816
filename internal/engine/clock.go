package engine

// Clock is a logical clock for build ordering.
//
// Every completed build is stamped with a strictly increasing seq number,
// so identical input yields identical snapshots regardless of wall time.
// Clock is owned by one engine and is not safe for concurrent use.
type Clock struct {
	seq int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next advances the clock and returns the new sequence number.
func (c *Clock) Next() int64 {
	c.seq++
	return c.seq
}
