// Package compression packs flash images for storage in test fixtures and for
// the CLI's image export.
//
// A flash region is mostly erased pages, which read back as long runs of 0xFF.
// Run-length encoding gets rid of almost all of that, and gzip squeezes what's
// left. A fresh 8 KiB two-page region shrinks to a few dozen bytes this way.
//
// The run-length scheme is RLE8: a byte B occurring N >= 2 times in a row is
// written twice, followed by an unsigned byte giving how many *more* times it
// occurs. For example:
//
//	W XXXXXXXXXXXXXXX Y ZZ
//	W XX 13 Y ZZ 0
//
// One group covers at most 257 bytes; longer runs are split into several
// groups. A pair of identical bytes costs three bytes, which is the price of
// using the data byte as its own escape.
package compression
