package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andresuchdata/quotemanager/internal/domain"
)

// ParseItems reads "productID=qty" pairs, as given on the command line or in a
// query string. Values may also be comma-separated; a bare ID means one unit.
func ParseItems(raw []string) ([]domain.Selection, error) {
	items := make([]domain.Selection, 0, len(raw))
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, qtyStr, found := strings.Cut(part, "=")
			qty := 1.0
			if found {
				parsed, err := strconv.ParseFloat(strings.TrimSpace(qtyStr), 64)
				if err != nil {
					return nil, fmt.Errorf("%w: item %q", ErrInvalidQuantity, part)
				}
				qty = parsed
			}
			items = append(items, domain.Selection{ProductID: strings.TrimSpace(id), Quantity: qty})
		}
	}
	return items, nil
}
