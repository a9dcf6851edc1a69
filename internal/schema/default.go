package schema

import (
	"math"
	"strings"
)

// defaultTypes covers the types the bundled collectors emit plus a few
// generic ones, so the daemon works without an external types.db.
const defaultTypes = `
absolute        value:ABSOLUTE:0:U
counter         value:COUNTER:U:U
derive          value:DERIVE:0:U
gauge           value:GAUGE:U:U
cpu             value:DERIVE:0:U
df_complex      value:GAUGE:0:U
if_dropped      rx:DERIVE:0:U, tx:DERIVE:0:U
if_errors       rx:DERIVE:0:U, tx:DERIVE:0:U
if_octets       rx:DERIVE:0:U, tx:DERIVE:0:U
if_packets      rx:DERIVE:0:U, tx:DERIVE:0:U
load            shortterm:GAUGE:0:5000, midterm:GAUGE:0:5000, longterm:GAUGE:0:5000
memory          value:GAUGE:0:281474976710656
swap            value:GAUGE:0:1099511627776
uptime          value:GAUGE:0:4294967295
`

// Default returns a database preloaded with the built-in types.
func Default() *DB {
	db := NewDB()
	// The built-in table is well formed; a parse failure here is a bug.
	if err := Parse(db, strings.NewReader(defaultTypes)); err != nil {
		panic("schema: invalid built-in type table: " + err.Error())
	}
	return db
}

// Unbounded reports whether a data-source bound is absent.
func Unbounded(v float64) bool { return math.IsNaN(v) }
