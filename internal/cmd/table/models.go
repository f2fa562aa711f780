// Package table converts catalogsync results into rows for terminal tables.
package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/internal/cmd/emoji"
	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/feed"
	"github.com/agentstation/catalogsync/pkg/history"
	"github.com/agentstation/catalogsync/pkg/revert"
	"github.com/agentstation/catalogsync/pkg/validate"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// RunResultToTableData renders a price run as a property table. With
// details, the sampled updates and violations follow the counters.
func RunResultToTableData(r *catalogsync.RunResult, details bool) Data {
	rows := [][]string{
		{"Run", r.RunID},
		{"Tenant", r.Tenant},
		{"Mode", mode(r.DryRun)},
		{"Started", r.StartedAt.Format(constants.TimeFormatHuman)},
		{"Duration", r.Duration.Round(time.Millisecond).String()},
		{"Feed rows", fmt.Sprintf("%d (%d invalid)", r.SourceTotal, r.FeedInvalidRows)},
		{"Catalog variants", strconv.Itoa(r.CatalogVariants)},
		{"Matches", fmt.Sprintf("%d valid / %d invalid", r.ValidMatches, r.InvalidMatches)},
		{"Unmatched", strconv.Itoa(r.Unmatched)},
		{"Shared keys", strconv.Itoa(r.SharedMatchKeys)},
		{"Price changes", fmt.Sprintf("+%d / -%d / =%d", r.PriceIncreases, r.PriceDecreases, r.PriceUnchanged)},
		{"Updated", status(r.Successful, r.Failed)},
		{"Batches", strconv.Itoa(r.Batches)},
	}
	if r.HistoryFailures > 0 {
		rows = append(rows, []string{"History failures", strconv.Itoa(r.HistoryFailures)})
	}

	codes := make([]validate.Code, 0, len(r.ViolationsByCode))
	for code := range r.ViolationsByCode {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	for _, code := range codes {
		rows = append(rows, []string{"Violations: " + Humanize(string(code)), strconv.Itoa(r.ViolationsByCode[code])})
	}

	if details {
		for _, u := range r.Updates {
			rows = append(rows, []string{"Update " + u.VariantID, describeUpdate(u)})
		}
		for _, v := range r.Violations {
			rows = append(rows, []string{"Rejected " + v.VariantID, v.Message})
		}
		for _, e := range r.Errors {
			rows = append(rows, []string{"Error", e})
		}
	}

	return Data{
		Headers:         []string{"Property", "Value"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft},
	}
}

// FlagResultToTableData renders an availability flag run.
func FlagResultToTableData(r *catalogsync.FlagResult) Data {
	rows := [][]string{
		{"Run", r.RunID},
		{"Tenant", r.Tenant},
		{"Mode", mode(r.DryRun)},
		{"Feed keys", strconv.Itoa(r.SourceKeys)},
		{"Variants", strconv.Itoa(r.TotalVariants)},
		{"Available", strconv.Itoa(r.Available)},
		{"Unavailable", strconv.Itoa(r.Unavailable)},
		{"Changed", strconv.Itoa(r.Changed)},
		{"Updated", status(r.Successful, r.Failed)},
	}
	for _, e := range r.Errors {
		rows = append(rows, []string{"Error", e})
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

// RunsToTableData lists recorded runs.
func RunsToTableData(runs []history.RunSummary) Data {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.RunID,
			r.StartedAt.Format(constants.TimeFormatHuman),
			Humanize(string(r.TriggeredBy)),
			strconv.Itoa(r.Entries),
			strconv.Itoa(r.Increases),
			strconv.Itoa(r.Decreases),
		})
	}
	return Data{
		Headers:         []string{"Run", "Started", "Trigger", "Entries", "Up", "Down"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight},
	}
}

// EntriesToTableData lists the history entries of a run.
func EntriesToTableData(items []history.Item) Data {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		e := it.Entry
		rows = append(rows, []string{
			e.VariantID,
			e.MatchKey,
			FormatPrice(e.OldPrice),
			FormatPrice(e.NewPrice),
			FormatOptionalPrice(e.OldCompareAtPrice),
			FormatPrice(e.NewCompareAtPrice),
			FormatChange(e.PriceChange),
		})
	}
	return Data{
		Headers:         []string{"Variant", "Match Key", "Old", "New", "Old Compare", "New Compare", "Change"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight},
	}
}

// RevertToTableData renders a revert result.
func RevertToTableData(r *revert.Result) Data {
	rows := [][]string{
		{"Run", r.RunID},
		{"Tenant", r.Tenant},
		{"Entries", strconv.Itoa(r.Entries)},
		{"Restored", status(r.Successful, r.Failed)},
	}
	for _, e := range r.Errors {
		rows = append(rows, []string{"Error", e})
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

// FeedToTableData renders parsed feed records, at most limit of them when
// limit is positive.
func FeedToTableData(res *feed.ParseResult, limit int) Data {
	records := res.Records
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.SourceID,
			rec.MatchKey,
			FormatPrice(rec.RecommendedPrice),
			FormatPrice(rec.PriceAdvice),
			fmt.Sprintf("%.1f%%", rec.DiscountPercentage),
		})
	}
	return Data{
		Headers:         []string{"Source ID", "Match Key", "Price", "Advice", "Discount"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight},
	}
}

// FormatPrice formats an amount with two decimals.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatOptionalPrice formats an optional amount, "-" when absent.
func FormatOptionalPrice(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return FormatPrice(*d)
}

// FormatChange formats a signed price delta.
func FormatChange(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}

// Humanize turns a snake_case identifier into title-cased words.
func Humanize(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

func describeUpdate(u history.UpdateSample) string {
	return fmt.Sprintf("%s -> %s (compare %s -> %s)",
		FormatPrice(u.OldPrice), FormatPrice(u.NewPrice),
		FormatOptionalPrice(u.OldCompareAtPrice), FormatPrice(u.NewCompareAtPrice))
}

func mode(dryRun bool) string {
	if dryRun {
		return "dry run"
	}
	return "live"
}

func status(ok, failed int) string {
	if failed == 0 {
		return fmt.Sprintf("%s %d", emoji.Success, ok)
	}
	return fmt.Sprintf("%s %d, %s %d failed", emoji.Success, ok, emoji.Error, failed)
}
