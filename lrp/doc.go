// Package lrp implements the Leakage Resilient Primitive from NXP AN12304.
//
// A Context is built from a 16-byte master key. It precomputes sixteen
// plaintexts (Algorithm 1) and four updated keys (Algorithm 2); one of the
// updated keys is selected to drive the evaluation function (Algorithm 3).
// On top of the evaluation function the package offers the LRP stream
// encryption (Algorithms 4 and 5, Encode/Decode) and the LRP CMAC.
//
// Counters used by the stream mode are big-endian nibble strings. Their
// length is given in nibbles, so odd lengths are possible and the low nibble
// of the last byte is then ignored.
package lrp
