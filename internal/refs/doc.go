// Package refs reconciles locally referenced commits and tags against a
// repository's remote, producing the unpushed-reference listing behind the
// deep scan.
package refs
