// Package items rebuilds payment line items from index-suffixed keys such as
// item_name_1, quantity_1 and amount_1.
package items

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/fields"
)

// Recognised key prefixes. Each is followed by the item index.
const (
	PrefixItemNumber = "item_number_"
	PrefixItemName   = "item_name_"
	PrefixQuantity   = "quantity_"
	PrefixAmount     = "amount_"
)

var prefixes = []string{PrefixItemNumber, PrefixItemName, PrefixQuantity, PrefixAmount}

// LineItem is one collated item. Unset fields stay nil.
type LineItem struct {
	Index    int              `json:"index"`
	ID       *string          `json:"item_number,omitempty"`
	Name     *string          `json:"item_name,omitempty"`
	Quantity *int             `json:"quantity,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
}

// Collate walks every key in m and returns one LineItem per index found.
// Indices need not start at zero or be contiguous. The first malformed key or
// field aborts collation and its error is returned.
//
// Items are returned in ascending index order.
func Collate(m fields.InputMap) ([]LineItem, error) {
	byIndex := make(map[int]*LineItem)

	for key := range m {
		if key == "" {
			continue
		}
		prefix, ok := matchPrefix(key)
		if !ok {
			continue
		}
		idx, err := Index(key)
		if err != nil {
			return nil, err
		}
		item := initOrGet(byIndex, idx)
		if err := populate(item, m, key, prefix); err != nil {
			return nil, err
		}
	}

	out := make([]LineItem, 0, len(byIndex))
	for _, it := range byIndex {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// Index extracts the numeric suffix of key: the component after the last '_'.
func Index(key string) (int, error) {
	if key == "" {
		return 0, &ItemProcessingError{Key: key, Reason: KindEmptyKey}
	}
	i := strings.LastIndex(key, "_")
	last := key[i+1:]
	if last == "" {
		return 0, &ItemProcessingError{Key: key, Reason: KindMissingIndex}
	}
	for _, r := range last {
		if r < '0' || r > '9' {
			return 0, &ItemProcessingError{Key: key, Value: last, Reason: KindUnparsableIndex}
		}
	}
	n, err := strconv.Atoi(last)
	if err != nil {
		// all digits but out of range
		return 0, &ItemProcessingError{Key: key, Value: last, Reason: KindUnparsableIndex}
	}
	return n, nil
}

// matchPrefix reports which item prefix key carries. A prefix also matches
// when it follows an underscore (item_amount_2), so misspelt item keys are
// rejected instead of being silently dropped.
func matchPrefix(key string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return p, true
		}
	}
	for _, p := range prefixes {
		if strings.Contains(key, "_"+p) {
			return p, true
		}
	}
	return "", false
}

func initOrGet(byIndex map[int]*LineItem, idx int) *LineItem {
	item, ok := byIndex[idx]
	if !ok {
		item = &LineItem{Index: idx}
		byIndex[idx] = item
	}
	return item
}

func populate(item *LineItem, m fields.InputMap, key, prefix string) error {
	switch prefix {
	case PrefixItemNumber:
		s, err := fields.RequireString(m, key)
		if err != nil {
			return err
		}
		item.ID = &s
	case PrefixItemName:
		s, err := fields.RequireString(m, key)
		if err != nil {
			return err
		}
		item.Name = &s
	case PrefixQuantity:
		n, err := fields.RequireInteger(m, key)
		if err != nil {
			return err
		}
		item.Quantity = &n
	case PrefixAmount:
		d, err := fields.RequireAmount(m, key, false)
		if err != nil {
			return err
		}
		item.Amount = &d
	}
	return nil
}
