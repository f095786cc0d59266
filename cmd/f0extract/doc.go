// Command f0extract prints the f0 contour of an audio file (WAV/FLAC).
//
// The contour is tracked with one frame per config block, gaps are filled
// with a spline in log2 space, and each frame is printed as
//
//	frame<TAB>f0_hz<TAB>unvoiced
//
// Usage:
//
//	f0extract <audio_file> [config.json]
//
// Without a config file the default 44.1 kHz settings are used; the
// sampling rate is always taken from the audio file.
package main
