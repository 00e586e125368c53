// Package cache is a small JSON-file cache with per-entry expiry.
//
// Entries live one file per key under a directory (by default
// ~/.medcarbon/cache). Keys are derived from their inputs with HighwayHash so
// the same lookup always lands on the same file. The calculator uses it to
// remember sea-route distances between runs.
package cache
