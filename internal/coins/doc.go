// Package coins turns a photograph of coins into a monetary total.
//
// CountCoins (or a reusable Counter) runs the pipeline:
//
//  1. imaging.Preprocess: grayscale and 15x15 Gaussian blur
//  2. detection.DetectCircles: gradient Hough transform
//  3. Match: radius to value with a fixed, ordered rule table
//  4. Aggregate: exact decimal total and an annotated copy of the image
//
// # Denomination Policy
//
// Rules are matched first-hit, not nearest-hit. A radius within tolerance of
// several rules takes the value of the earliest one in the table. This is
// the documented behaviour of the reference table and callers supplying
// their own table should order it accordingly.
//
// # Money
//
// Values are shopspring/decimal amounts and totals are exact: 0.05 + 0.10 +
// 0.25 is 0.40, not 0.39999999.
//
// # Outcomes That Are Not Errors
//
// An image with no circles yields a zero total and an unmodified copy. A
// circle that matches no rule is left out of the total and not drawn.
// Collaborators use Result.Detected and Result.Coins to tell these apart.
package coins
