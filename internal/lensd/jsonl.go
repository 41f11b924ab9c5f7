package lensd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// ReadFrame returns the next non-blank line without its terminator. A final
// line missing the trailing newline is still a frame; a clean end of input
// surfaces as io.EOF.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("reader is nil")
	}
	for {
		raw, err := r.ReadBytes('\n')
		line := bytes.TrimSpace(raw)
		if len(line) > 0 {
			if err != nil && err != io.EOF {
				return nil, err
			}
			return line, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// WriteFrame marshals obj and writes it as one newline-terminated line.
func WriteFrame(w io.Writer, obj any) error {
	if w == nil {
		return fmt.Errorf("writer is nil")
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
