// Package imaging provides the raster stages of the coin counting pipeline.
//
// It covers everything that touches pixels directly: decoding and caching
// input files, converting to grayscale, Gaussian smoothing, Canny edge
// extraction and drawing annotations onto a copy of the source image.
// Circle detection and denomination matching live in the detection and coins
// packages and consume the types defined here.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left, X increasing
// rightward and Y increasing downward. Functions that return images keep the
// caller's bounds unless documented otherwise (Annotate rebases to (0,0)).
//
// # Immutability
//
// No function in this package modifies its input image. Preprocess, Canny
// and Annotate always allocate their outputs, so independent images can be
// processed concurrently without locking. ImageCache is safe for concurrent
// use.
//
// # Error Handling
//
// Malformed input (nil or empty images, even kernel sizes, bad colors) is
// reported as an invalid_input AppError; file and encoding failures as io
// AppErrors.
package imaging
