package core

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RowField names a VariantRow field targeted by fill-down and paste-apply.
type RowField string

const (
	FieldQuantity  RowField = "quantity"
	FieldUnitPrice RowField = "unitPrice"
	FieldSKU       RowField = "sku"
	FieldBarcode   RowField = "barcode"
)

var (
	selectorBareRe  = regexp.MustCompile(`^\d+$`)
	selectorRangeRe = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)
	digitRunRe      = regexp.MustCompile(`\d+`)
	seriesTokenRe   = regexp.MustCompile(`<(\d+)-(\d+)>`)
	pasteSplitRe    = regexp.MustCompile(`[,\n\t]`)
)

// seriesCap bounds how many rows one series may generate, guarding against
// accidental thousands-of-rows creation from a typo.
const seriesCap = 200

// ParseSelector parses a quick-selection pattern like "4,5,6,33,67" or
// "20-60" into a deduplicated ascending number set. Each comma-separated
// token is a bare integer or an inclusive, order-independent range.
// Malformed tokens are skipped, not rejected; the skipped count is returned
// so callers can surface it. An empty result means the pattern selected
// nothing.
func ParseSelector(text string) ([]int, int) {
	seen := make(map[int]struct{})
	skipped := 0
	for _, token := range strings.Split(text, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if selectorBareRe.MatchString(token) {
			if n, err := strconv.Atoi(token); err == nil {
				seen[n] = struct{}{}
				continue
			}
		}
		if m := selectorRangeRe.FindStringSubmatch(token); m != nil {
			start, err1 := strconv.Atoi(m[1])
			end, err2 := strconv.Atoi(m[2])
			if err1 == nil && err2 == nil {
				if start > end {
					start, end = end, start
				}
				for n := start; n <= end; n++ {
					seen[n] = struct{}{}
				}
				continue
			}
		}
		skipped++
	}

	nums := make([]int, 0, len(seen))
	for n := range seen {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums, skipped
}

// ExtractNumber returns the variant index embedded in a display name, taken
// as the last run of digits anywhere in the name ("Size 42" → 42,
// "Batch 2 Model 7" → 7). Trailing numbers are the common variant-index
// convention in this domain; the last-match rule is a documented heuristic.
func ExtractNumber(name string) (int, bool) {
	runs := digitRunRe.FindAllString(name, -1)
	if len(runs) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(runs[len(runs)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ApplyPattern overwrites quantity and unit price on every row targeted by
// the selection pattern and marks targeted rows selected. An empty pattern
// targets all rows. Returns how many rows matched and how many pattern
// tokens were skipped as malformed.
func ApplyPattern(rows []VariantRow, pattern string, quantity int, unitPrice decimal.Decimal) (int, int, error) {
	if len(rows) == 0 {
		return 0, 0, validationErrorf(ValidationNoItems, "no variants to edit")
	}

	pattern = strings.TrimSpace(pattern)
	matchAll := pattern == ""
	var wanted map[int]struct{}
	skipped := 0
	if !matchAll {
		nums, s := ParseSelector(pattern)
		skipped = s
		if len(nums) == 0 {
			return 0, skipped, validationErrorf(ValidationBadPattern, "pattern %q selects no variants", pattern)
		}
		wanted = make(map[int]struct{}, len(nums))
		for _, n := range nums {
			wanted[n] = struct{}{}
		}
	}

	matched := 0
	for i := range rows {
		target := matchAll
		if !target {
			if n, ok := ExtractNumber(rows[i].Name); ok {
				_, target = wanted[n]
			}
		}
		rows[i].Selected = target
		if !target {
			continue
		}
		rows[i].Quantity = quantity
		rows[i].UnitPrice = unitPrice
		matched++
	}

	if matched == 0 {
		return 0, skipped, validationErrorf(ValidationBadPattern, "pattern %q matched no variants", pattern)
	}
	return matched, skipped, nil
}

// GenerateSeries expands a template containing a <start-end> placeholder
// into one row per number in the inclusive range, each named prefix plus the
// number. Bounds are order-independent. A range spanning more than 200
// numbers is rejected before any row is created.
func GenerateSeries(template string, quantity int, unitPrice decimal.Decimal) ([]VariantRow, error) {
	loc := seriesTokenRe.FindStringSubmatchIndex(template)
	if loc == nil {
		return nil, validationErrorf(ValidationBadPattern,
			"series template must contain a <start-end> placeholder, e.g. %q", "Size <1-100>")
	}

	start, _ := strconv.Atoi(template[loc[2]:loc[3]])
	end, _ := strconv.Atoi(template[loc[4]:loc[5]])
	if start > end {
		start, end = end, start
	}
	if end-start > seriesCap {
		return nil, validationErrorf(ValidationSeriesTooLarge,
			"series range too large: %d-%d spans more than %d variants", start, end, seriesCap)
	}

	prefix := template[:loc[0]]
	rows := make([]VariantRow, 0, end-start+1)
	for i := start; i <= end; i++ {
		rows = append(rows, VariantRow{
			ID:        uuid.NewString(),
			Name:      fmt.Sprintf("%s%d", prefix, i),
			Quantity:  quantity,
			UnitPrice: unitPrice,
		})
	}
	return rows, nil
}

// FillDown copies the source row's field value into every row strictly below
// it in list order. A source on the last row is a no-op.
func FillDown(rows []VariantRow, source int, field RowField) error {
	if source < 0 || source >= len(rows) {
		return fmt.Errorf("fill-down source index %d out of range (have %d rows)", source, len(rows))
	}
	src := rows[source]
	for i := source + 1; i < len(rows); i++ {
		switch field {
		case FieldQuantity:
			rows[i].Quantity = src.Quantity
		case FieldUnitPrice:
			rows[i].UnitPrice = src.UnitPrice
		case FieldSKU:
			rows[i].SKU = src.SKU
		case FieldBarcode:
			rows[i].Barcode = src.Barcode
		default:
			return validationErrorf(ValidationUnknownField, "cannot fill down field %q", field)
		}
	}
	return nil
}

// ApplyValues splits pasted text on commas, newlines, and tabs and assigns
// the parsed numbers positionally to the ordered target subset (rows whose
// id is in targetIDs, or all rows when none are given) until either list is
// exhausted. Non-numeric tokens become 0. Quantities are floored to
// non-negative integers; prices are clamped to non-negative and keep their
// decimals. Returns the number of rows assigned.
func ApplyValues(rows []VariantRow, targetIDs []string, raw string, field RowField) (int, error) {
	if field != FieldQuantity && field != FieldUnitPrice {
		return 0, validationErrorf(ValidationUnknownField, "cannot paste values into field %q", field)
	}

	var tokens []string
	for _, tok := range pasteSplitRe.Split(raw, -1) {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		return 0, validationErrorf(ValidationEmptyPasteList, "paste list is empty")
	}

	wanted := make(map[string]struct{}, len(targetIDs))
	for _, id := range targetIDs {
		wanted[id] = struct{}{}
	}

	assigned := 0
	for i := range rows {
		if assigned >= len(tokens) {
			break
		}
		if len(wanted) > 0 {
			if _, ok := wanted[rows[i].ID]; !ok {
				continue
			}
		}
		v, err := strconv.ParseFloat(tokens[assigned], 64)
		if err != nil || math.IsNaN(v) {
			v = 0
		}
		if v < 0 {
			v = 0
		}
		switch field {
		case FieldQuantity:
			rows[i].Quantity = int(math.Floor(v))
		case FieldUnitPrice:
			rows[i].UnitPrice = decimal.NewFromFloat(v)
		}
		assigned++
	}
	return assigned, nil
}

// ApplyBarcodes assigns pasted barcode lines positionally to all rows in
// list order, trimming whitespace and dropping blank lines. Rows beyond the
// pasted list keep their existing barcode. Returns the number assigned.
func ApplyBarcodes(rows []VariantRow, raw string) (int, error) {
	var codes []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			codes = append(codes, line)
		}
	}
	if len(codes) == 0 {
		return 0, validationErrorf(ValidationEmptyPasteList, "barcode list is empty")
	}

	n := min(len(codes), len(rows))
	for i := 0; i < n; i++ {
		rows[i].Barcode = codes[i]
	}
	return n, nil
}
