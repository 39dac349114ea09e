package pipeline

import (
	"bufio"
	"encoding/json"
	"io"
)

// arrayWriter streams JSON values as the elements of one top-level array.
type arrayWriter struct {
	w       *bufio.Writer
	emitted int
	closed  bool
}

func newArrayWriter(w io.Writer) (*arrayWriter, error) {
	aw := &arrayWriter{w: bufio.NewWriter(w)}
	if _, err := aw.w.WriteString("[\n"); err != nil {
		return nil, err
	}
	return aw, nil
}

// Write appends v as the next element.
func (a *arrayWriter) Write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if a.emitted > 0 {
		if _, err := a.w.WriteString(",\n"); err != nil {
			return err
		}
	}
	if _, err := a.w.Write(data); err != nil {
		return err
	}
	a.emitted++
	return nil
}

// Close terminates the array and flushes. Further calls are no-ops.
func (a *arrayWriter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	if _, err := a.w.WriteString("\n]\n"); err != nil {
		return err
	}
	return a.w.Flush()
}
