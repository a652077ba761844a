package compression

import (
	"bufio"
	"io"
)

// ByteRun is a maximal run of one byte value.
type ByteRun struct {
	Byte byte
	// RunLength is the number of times Byte occurs, always at least 1 for a
	// valid run.
	RunLength int
}

// RunLengthGrouper splits a byte stream into [ByteRun]s.
type RunLengthGrouper struct {
	rd *bufio.Reader
}

func NewRunLengthGrouper(rd io.Reader) RunLengthGrouper {
	return RunLengthGrouper{rd: bufio.NewReader(rd)}
}

// GetNextRun returns the next run in the stream. At the end of the stream it
// returns io.EOF and an empty run; a final run is always returned with a nil
// error first.
func (grouper RunLengthGrouper) GetNextRun() (ByteRun, error) {
	first, err := grouper.rd.ReadByte()
	if err != nil {
		return ByteRun{}, err
	}

	run := ByteRun{Byte: first, RunLength: 1}
	for {
		current, err := grouper.rd.ReadByte()
		if err == io.EOF {
			return run, nil
		} else if err != nil {
			return ByteRun{}, err
		}

		if current != first {
			grouper.rd.UnreadByte()
			return run, nil
		}
		run.RunLength++
	}
}
