// Package keyref builds reference strings for composite row keys.
package keyref

import (
	"fmt"
	"hash/fnv"
	"strings"
)

var escaper = strings.NewReplacer("%", "%25", "#", "%23")

// Ref joins a table name and the values of its key columns, in key order,
// as "table#v1#v2". A '#' inside a value is escaped so refs never collide.
func Ref(table string, values ...any) string {
	parts := make([]string, 0, len(values)+1)
	parts = append(parts, escaper.Replace(table))
	for _, v := range values {
		parts = append(parts, escaper.Replace(fmt.Sprint(v)))
	}
	return strings.Join(parts, "#")
}

// Stripe maps ref to one of n stripes. With n <= 1 every ref maps to 0.
func Stripe(ref string, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(ref))
	return int(h.Sum32() % uint32(n))
}
