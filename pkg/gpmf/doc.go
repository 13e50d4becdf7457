// Package gpmf decodes the self-describing KLV telemetry format embedded in
// action-camera recordings into a typed, nested record tree.
//
// Each record on the wire is an 8-byte header (4-byte type key, 1-byte
// element type tag, 1-byte element size, 2-byte big-endian element count)
// followed by size*count payload bytes, padded to a 4-byte boundary. Two
// grouping keys (DEVC, STRM) nest complete record sequences as their
// payload; every other known key decodes to a scalar, text, or fixed-width
// tuple list, and unknown keys carrying the custom tag decode to opaque
// blobs.
//
// Decoding is strict: the first malformed record aborts the whole decode
// with an error wrapping one of the package's sentinel errors, and no
// partial tree is returned. The format has no resynchronization framing, so
// skipping a bad record could silently misread everything after it.
package gpmf
