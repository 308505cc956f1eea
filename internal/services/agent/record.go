package agent

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vshulcz/enginestats/internal/domain"
	"github.com/vshulcz/enginestats/internal/services/recorder"
)

const maxLineBytes = 1 << 20

var errEmptyRecord = errors.New("record holds neither a run nor a search")

// Record is one line of the replay log: either an engine run or the global
// timings of a search.
type Record struct {
	Run    *recorder.EngineRun `json:"run,omitempty"`
	Search *recorder.SearchRun `json:"search,omitempty"`
}

func (r Record) validate() error {
	switch {
	case r.Run == nil && r.Search == nil:
		return errEmptyRecord
	case r.Run != nil && r.Search != nil:
		return errors.New("record holds both a run and a search")
	case r.Run != nil:
		_, err := r.Run.Observations()
		return err
	}
	return nil
}

// Observations expands the record into the samples and counters it implies.
func (r Record) Observations() ([]domain.Observation, error) {
	if r.Run != nil {
		return r.Run.Observations()
	}
	if r.Search != nil {
		return r.Search.Observations(), nil
	}
	return nil, errEmptyRecord
}

// ParseRecord decodes one NDJSON line.
func ParseRecord(line []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	if err := rec.validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// scanRecords calls fn for every non-blank line with its 1-based number.
func scanRecords(r io.Reader, fn func(n int, line []byte)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		fn(n, line)
	}
	return sc.Err()
}
