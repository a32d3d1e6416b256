package eventstream

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"coroviz/internal/wire"
)

// maxRecordBytes bounds a single NDJSON line; suspension payloads with long
// locations stay well under this.
const maxRecordBytes = 1 << 20

// NDJSONSource reads newline-delimited JSON records from an io.Reader.
type NDJSONSource struct {
	scanner *bufio.Scanner
}

// NewNDJSONSource creates a source over r. The caller keeps ownership of r.
func NewNDJSONSource(r io.Reader) *NDJSONSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxRecordBytes)
	return &NDJSONSource{scanner: scanner}
}

// Read returns the next record, skipping blank lines. A line that fails to
// decode is returned as an error; the stream pump logs it and moves on.
func (s *NDJSONSource) Read(ctx context.Context) (*wire.Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		return wire.Decode(line)
	}
}
