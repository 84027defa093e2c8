// Package orderid derives human-readable order codes shown on receipts.
package orderid

import (
	"strings"
	"time"
)

// Two-letter prefixes per product type. Mixed carts get the generic MX code.
var prefixes = map[string]string{
	"beat":      "BT",
	"license":   "BT",
	"sound_kit": "SK",
	"service":   "SV",
	"plan":      "PL",
}

const mixedPrefix = "MX"

// Generate builds a code like BT-090226-AB12 from the distinct product
// types of a purchase, the gateway transaction id, and the purchase date.
// It is formatting only: uniqueness comes from the transaction id itself.
func Generate(productTypes []string, transactionID string, at time.Time) string {
	prefix := mixedPrefix
	distinct := distinctPrefixes(productTypes)
	if len(distinct) == 1 {
		prefix = distinct[0]
	}

	last4 := transactionID
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}

	return strings.ToUpper(prefix + "-" + at.Format("020106") + "-" + last4)
}

func distinctPrefixes(productTypes []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, pt := range productTypes {
		p, ok := prefixes[strings.ToLower(pt)]
		if !ok {
			p = mixedPrefix
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
