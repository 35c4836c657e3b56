// Package positionsmap packs ordered, weakly monotonic sequences of
// non-negative integers into a compact byte string and back.
//
// The typical payload maps word positions to absolute byte offsets in a
// normalized text, which search front ends use to rebuild highlight ranges.
//
// Packing runs three stages:
//  1. delta transform: keep the first value, replace every later value
//     with its difference to the predecessor (never negative);
//  2. variable-length numeric encoding of the deltas;
//  3. lossless compression at the maximum level.
//
// Unpacking runs the inverse stages in reverse order. Any stage failure
// aborts the call and is reported as an *Error whose Kind tells bad input
// shape, broken monotonicity and corrupt or foreign bytes apart.
package positionsmap
