package feed

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/agentstation/catalogsync/pkg/errors"
)

// Column layout: sourceId, matchKey, recommendedPrice, priceAdvice.
const (
	colSourceID = iota
	colMatchKey
	colRecommended
	colAdvice
	minColumns
)

// rowResult is either a record or the reason the row was rejected.
type rowResult struct {
	record Record
	err    *errors.FeedRowError
}

// Parse reads a delimited feed. Rejected rows are counted and described in
// the result; only invalid options or a failing reader return an error.
func Parse(r io.Reader, opts ...Option) (*ParseResult, error) {
	o := Defaults().Apply(opts...)
	if err := o.Validate(); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.Comma = o.Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = !unicode.IsSpace(o.Delimiter)
	cr.ReuseRecord = true

	result := &ParseResult{}
	header := o.SkipHeader
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}

		var res rowResult
		var pe *csv.ParseError
		switch {
		case stderrors.As(err, &pe):
			res.err = &errors.FeedRowError{Row: pe.StartLine, Message: pe.Err.Error()}
			header = false
		case err != nil:
			return nil, errors.WrapIO("read", "feed", err)
		case header:
			header = false
			continue
		default:
			line, _ := cr.FieldPos(0)
			res = parseRow(fields, line)
		}

		result.TotalRows++
		if res.err != nil {
			result.InvalidRows++
			if len(result.Errors) < o.MaxErrors {
				result.Errors = append(result.Errors, res.err.Error())
			}
			continue
		}
		result.ValidRows++
		result.Records = append(result.Records, res.record)
	}
	return result, nil
}

// ParseFile parses a feed stored on disk.
func ParseFile(path string, opts ...Option) (*ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f, opts...)
}

func parseRow(fields []string, line int) rowResult {
	if len(fields) < minColumns {
		return rowResult{err: &errors.FeedRowError{
			Row:     line,
			Message: fmt.Sprintf("too few columns (got %d, want %d)", len(fields), minColumns),
		}}
	}

	key := strings.TrimSpace(fields[colMatchKey])
	if key == "" {
		return rowResult{err: &errors.FeedRowError{Row: line, Field: "matchKey", Message: "missing match key"}}
	}

	recommended, rerr := parsePrice(line, "recommendedPrice", fields[colRecommended])
	if rerr != nil {
		return rowResult{err: rerr}
	}
	advice, rerr := parsePrice(line, "priceAdvice", fields[colAdvice])
	if rerr != nil {
		return rowResult{err: rerr}
	}

	return rowResult{record: Record{
		SourceID:           strings.TrimSpace(fields[colSourceID]),
		MatchKey:           key,
		RecommendedPrice:   recommended,
		PriceAdvice:        advice,
		DiscountPercentage: Discount(recommended, advice),
	}}
}

func parsePrice(line int, field, raw string) (decimal.Decimal, *errors.FeedRowError) {
	s := normalizeDecimal(strings.TrimSpace(raw))
	if s == "" {
		return decimal.Zero, &errors.FeedRowError{Row: line, Field: field, Message: "missing price"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &errors.FeedRowError{Row: line, Field: field, Message: fmt.Sprintf("not a number: %q", raw)}
	}
	if !d.IsPositive() {
		return decimal.Zero, &errors.FeedRowError{Row: line, Field: field, Message: fmt.Sprintf("must be positive, got %s", d)}
	}
	return d, nil
}

// normalizeDecimal accepts both "1234.56" and "1.234,56"/"45,00": whichever of
// ',' and '.' comes last is the decimal separator, the other is dropped.
func normalizeDecimal(s string) string {
	comma := strings.LastIndexByte(s, ',')
	dot := strings.LastIndexByte(s, '.')
	switch {
	case comma < 0:
		return s
	case comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	default:
		return strings.ReplaceAll(s, ",", "")
	}
}
