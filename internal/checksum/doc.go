// Package checksum fingerprints MetaNetX dump files.
//
// Two digests are kept per input:
//
//   - Raw: SHA-256 of the exact bytes
//   - Normalized: SHA-256 after dropping '#' comment lines, converting CRLF
//     to LF and trimming trailing whitespace
//
// MetaNetX prefixes every table with a licence and release banner, so the
// normalized digest tells whether two downloads carry the same rows even
// when the banner changed.
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
