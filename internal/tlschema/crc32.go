package tlschema

import (
	"hash/crc32"
	"strings"
)

// computeID derives the constructor ID for a definition string that carries
// no explicit "#id": the IEEE CRC-32 of the whole definition, "= Type"
// included, with every run of whitespace collapsed to one space, so
// "boolFalse = Bool" gives 0xbc799737. No other canonicalization is applied;
// flag-guarded and generic parameters are hashed as written.
func computeID(definition string) uint32 {
	canonical := strings.Join(strings.Fields(definition), " ")
	return crc32.ChecksumIEEE([]byte(canonical))
}
