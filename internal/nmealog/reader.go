package nmealog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"tripscan/internal/gps"
)

// Log format: line-oriented text as written by the in-vehicle recorder.
//
// - The first HeaderLines lines are a preamble and are skipped unconditionally.
// - Every following line is a comma-separated NMEA sentence; field 0 is the tag.
// - Only rows whose tag equals Tag and whose latitude (field 3) is non-empty
//   are fixes. Other tags are counted and ignored; void fixes are counted.
// - Rows that are tagged but malformed are rejected individually and never
//   abort the file.

// ErrShortHeader is returned when a file ends inside its preamble.
var ErrShortHeader = errors.New("log ends before header is complete")

type Options struct {
	HeaderLines    int
	Tag            string
	VerifyChecksum bool
}

func DefaultOptions() Options {
	return Options{HeaderLines: 5, Tag: gps.DefaultSentenceTag}
}

// Log is the result of reading one file.
type Log struct {
	Rows     []gps.RawFixRow
	Rejected []*gps.RowError

	// Records counts non-empty lines after the header.
	Records int
	// Tagged counts rows whose tag matched, whatever became of them.
	Tagged int
	// Ignored counts rows with a different tag.
	Ignored int
	// Void counts tagged rows with an empty latitude.
	Void int
	// Types histograms the three-letter sentence type of every record.
	Types map[string]int
}

type Reader struct {
	r    io.Reader
	opts Options
}

func NewReader(r io.Reader, opts Options) *Reader {
	if opts.Tag == "" {
		opts.Tag = gps.DefaultSentenceTag
	}
	if opts.HeaderLines < 0 {
		opts.HeaderLines = 0
	}
	return &Reader{r: r, opts: opts}
}

func (rr *Reader) ReadAll() (*Log, error) {
	br := bufio.NewReaderSize(rr.r, 64*1024)
	for i := 0; i < rr.opts.HeaderLines; i++ {
		line, err := br.ReadString('\n')
		if err == io.EOF && line == "" {
			return nil, fmt.Errorf("%w (%d of %d lines)", ErrShortHeader, i, rr.opts.HeaderLines)
		}
		if err != nil && err != io.EOF {
			return nil, err
		}
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	out := &Log{Types: map[string]int{}}
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, err
			}
			out.Records++
			out.Rejected = append(out.Rejected, &gps.RowError{
				Line: pe.StartLine + rr.opts.HeaderLines,
				Err:  fmt.Errorf("%w: %v", gps.ErrMalformedSentence, pe.Err),
			})
			continue
		}
		out.Records++
		line, _ := cr.FieldPos(0)
		line += rr.opts.HeaderLines

		if t := gps.SentenceType(fields[0]); t != "" {
			out.Types[t]++
		}
		if fields[0] != rr.opts.Tag {
			out.Ignored++
			continue
		}
		out.Tagged++
		if len(fields) > 3 && fields[3] == "" {
			out.Void++
			continue
		}

		row, err := gps.ParseRawFixRow(line, fields)
		if err != nil {
			out.Rejected = append(out.Rejected, asRowError(line, err))
			continue
		}
		if rr.opts.VerifyChecksum {
			if err := gps.VerifySentence(line, row.Sentence()); err != nil {
				out.Rejected = append(out.Rejected, asRowError(line, err))
				continue
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// ReadFile opens and reads a single log file.
func ReadFile(path string, opts Options) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lg, err := NewReader(f, opts).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lg, nil
}

func asRowError(line int, err error) *gps.RowError {
	var re *gps.RowError
	if errors.As(err, &re) {
		return re
	}
	return &gps.RowError{Line: line, Err: err}
}
