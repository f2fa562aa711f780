package snapshot

import (
	"bufio"
	"bytes"
	stderrors "errors"
	"io"

	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/errors"
)

// IndexStats describes a parsed bulk result. It is informational only.
type IndexStats struct {
	Lines      int `json:"lines"`
	Products   int `json:"products"`
	Variants   int `json:"variants"`
	WithoutKey int `json:"without_key"`
	Malformed  int `json:"malformed"`
}

// ParseIndex stream-parses a bulk result file into an index keyed by barcode.
// Malformed lines, lines longer than maxLine and variants without a barcode
// are skipped.
func ParseIndex(r io.Reader, maxLine int) (*catalogs.Index, IndexStats, error) {
	idx := catalogs.NewIndex()
	var stats IndexStats

	if maxLine <= 0 {
		maxLine = constants.MaxLineSize
	}
	// One extra byte holds the newline of a line of exactly maxLine bytes.
	br := bufio.NewReaderSize(r, maxLine+1)
	for {
		raw, err := br.ReadSlice('\n')
		if stderrors.Is(err, bufio.ErrBufferFull) {
			stats.Lines++
			stats.Malformed++
			if err = discardLine(br); err == io.EOF {
				break
			}
			if err != nil {
				return nil, stats, errors.WrapParse("ndjson", "bulk result", err)
			}
			continue
		}

		if line := bytes.TrimSpace(raw); len(line) > 0 {
			stats.Lines++
			switch l := catalogs.ParseLine(line).(type) {
			case catalogs.ParentLine:
				stats.Products++
			case catalogs.ChildLine:
				stats.Variants++
				if !idx.Add(l.Entry()) {
					stats.WithoutKey++
				}
			case catalogs.Malformed:
				stats.Malformed++
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, errors.WrapParse("ndjson", "bulk result", err)
		}
	}
	return idx, stats, nil
}

// discardLine drops the remainder of an oversized line, up to and including
// its newline.
func discardLine(br *bufio.Reader) error {
	for {
		_, err := br.ReadSlice('\n')
		if !stderrors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}
