// Package buffer provides the interleaved stereo sample buffer that is the
// unit of work for every stage of the processing chain.
//
// Samples are signed 32-bit integers carrying 24 significant bits,
// right-justified: full scale (0 dBFS) is FullScale = 2^23. Index 2k holds
// the left channel of frame k and index 2k+1 the right channel. Every buffer
// has an even sample count by construction.
package buffer
