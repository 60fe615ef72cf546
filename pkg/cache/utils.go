package cache

import (
	"fmt"
	"strings"
)

// GenerateKey joins prefix and parameters with colons, e.g.
// GenerateKey("history", "yahoo", "AAPL") == "history:yahoo:AAPL".
func GenerateKey(prefix string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range params {
		fmt.Fprintf(&b, ":%v", p)
	}
	return b.String()
}
