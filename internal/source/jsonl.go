package source

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geopost/internal/model"
)

// JSONLSource replays search API status objects from a JSON-lines file,
// one object per line. A line carrying an "errors" array with the rate
// limit code ends the stream with ErrThrottled.
type JSONLSource struct {
	f        *os.File
	scanner  *bufio.Scanner
	maxItems int
	returned int
	line     int
}

// OpenJSONL opens path for replay. A missing or unreadable file wraps ErrAuth
// because it fails at the same point an unreachable provider would.
func OpenJSONL(path string, maxItems int) (*JSONLSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(ErrAuth, "source: open replay file %s: %v", path, err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &JSONLSource{f: f, scanner: sc, maxItems: maxItems}, nil
}

// Next implements PostSource.
func (s *JSONLSource) Next(ctx context.Context) (*model.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.maxItems > 0 && s.returned >= s.maxItems {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		s.line++
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}

		var rec struct {
			status
			Errors []apiError `json:"errors"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, eris.Wrapf(err, "source: replay line %d", s.line)
		}
		if hasRateLimitError(rec.Errors) {
			return nil, eris.Wrapf(ErrThrottled, "source: replay line %d", s.line)
		}
		if len(rec.Errors) > 0 {
			return nil, eris.Errorf("source: replay line %d: %s", s.line, rec.Errors[0].Message)
		}

		s.returned++
		return rec.status.toPost(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "source: replay scan")
	}
	return nil, io.EOF
}

// Close releases the file.
func (s *JSONLSource) Close() error {
	return s.f.Close()
}
