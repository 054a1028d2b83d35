// Package detection finds coin-shaped circles in preprocessed images.
//
// The detector is a gradient Hough circle transform: edge pixels from a Canny
// pass vote for centers along their gradient direction, strong centers are
// kept with non-maximum suppression by vote count, and each surviving center
// gets its radius from a histogram of edge distances.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Circle centers and radii are float64 and may carry sub-pixel precision
// from the accumulator resolution (HoughParams.DP).
//
// # Determinism
//
// DetectCircles is a pure function of its image and parameters: the same
// input always yields the same circles in the same order, and the input
// image is never written to.
//
// # Performance Considerations
//
// Voting costs O(edge pixels × (MaxRadius - MinRadius) / DP). Radius
// estimation only scans edge pixels in the rows within MaxRadius of each
// candidate. Keep the radius range tight for large photographs.
//
// # Limitations
//
//   - Touching or overlapping coins are only separated when their centers
//     are at least MinDist apart
//   - Ellipses (coins photographed at an angle) are not modelled
//   - Low contrast between coin and background may drop edges below Param1
package detection
