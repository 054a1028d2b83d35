package detection

import (
	"image"
	"math"
	"sort"

	apperrors "github.com/ironsheep/coin-counter/internal/errors"
	"github.com/ironsheep/coin-counter/internal/imaging"
)

// Point is a sub-pixel position in image coordinates.
type Point struct {
	X float64 `json:"x"` // Horizontal position (0 = leftmost pixel)
	Y float64 `json:"y"` // Vertical position (0 = topmost pixel)
}

// Circle is one detected circular shape.
//
// Circles are values: the detector hands out independent copies and never
// refers back to them.
type Circle struct {
	// Center is the detected center in the source image's coordinates.
	Center Point `json:"center"`

	// Radius is the mean distance of the supporting edge pixels, in pixels.
	Radius float64 `json:"radius"`

	// Votes is the center accumulator count that made this a candidate.
	// Higher values mean more edge pixels pointed at this center.
	Votes int `json:"votes"`
}

// HoughParams configures the gradient Hough circle transform.
type HoughParams struct {
	// DP is the inverse ratio of accumulator resolution to image resolution.
	// 1 means the accumulator has the image's resolution, 2 means half.
	DP float64 `json:"dp"`

	// MinDist is the minimum distance in pixels between accepted centers.
	MinDist float64 `json:"min_dist"`

	// Param1 is the high Canny threshold; the low one is half of it.
	Param1 float64 `json:"param1"`

	// Param2 is the vote threshold a center cell and its radius support
	// must exceed.
	Param2 float64 `json:"param2"`

	// MinRadius and MaxRadius bound the radii searched and reported.
	MinRadius int `json:"min_radius"`
	MaxRadius int `json:"max_radius"`
}

// DefaultHoughParams returns the reference coin detector configuration.
func DefaultHoughParams() HoughParams {
	return HoughParams{
		DP:        1.2,
		MinDist:   30,
		Param1:    200,
		Param2:    30,
		MinRadius: 5,
		MaxRadius: 50,
	}
}

// Validate rejects parameter sets the transform cannot run with.
func (p HoughParams) Validate() error {
	switch {
	case !(p.DP > 0) || math.IsInf(p.DP, 0):
		return apperrors.InvalidInputf("dp must be positive, got %v", p.DP)
	case p.MinDist < 0 || math.IsNaN(p.MinDist):
		return apperrors.InvalidInputf("min_dist must not be negative, got %v", p.MinDist)
	case !(p.Param1 > 0):
		return apperrors.InvalidInputf("param1 must be positive, got %v", p.Param1)
	case !(p.Param2 > 0):
		return apperrors.InvalidInputf("param2 must be positive, got %v", p.Param2)
	case p.MinRadius < 0:
		return apperrors.InvalidInputf("min_radius must not be negative, got %d", p.MinRadius)
	case p.MaxRadius <= 0 || p.MaxRadius < p.MinRadius:
		return apperrors.InvalidInputf("max_radius must be positive and >= min_radius, got %d", p.MaxRadius)
	}
	return nil
}

// DetectCircles finds circles in a smoothed grayscale image using the
// gradient Hough transform.
//
// Parameters:
//   - gray: Preprocessed (grayscale, blurred) image. Not modified.
//   - params: Transform configuration, see DefaultHoughParams.
//
// Returns:
//   - []Circle: Accepted circles, strongest first. Empty (never nil) when
//     nothing passes the thresholds; that is a normal outcome.
//   - error: invalid_input for an empty image or invalid params.
//
// # Algorithm
//
//  1. Edge Detection: Canny with thresholds Param1/2 and Param1
//  2. Center Voting: every edge pixel votes along its gradient line, in
//     both directions, at every distance in [MinRadius, MaxRadius]. The
//     accumulator is 1/DP of the image resolution, and a pixel votes at
//     most once per cell per direction.
//  3. Candidates: cells whose votes exceed Param2 and that are local
//     maxima of the accumulator
//  4. Suppression: candidates are visited by descending votes; one within
//     MinDist of an accepted circle is discarded
//  5. Radius: distances from the candidate center to edge pixels in
//     [MinRadius, MaxRadius] are binned at DP resolution. The densest
//     3-bin window must hold more than Param2 pixels; the radius is their
//     mean distance.
//
// The (center, radius) parameter space is thus searched in two passes rather
// than through a full 3-D accumulator, which keeps memory proportional to
// the image size.
func DetectCircles(gray *image.Gray, params HoughParams) ([]Circle, error) {
	if gray == nil || gray.Bounds().Empty() {
		return nil, apperrors.InvalidInputf("circle detection needs a non-empty image")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	edges, err := imaging.Canny(gray, math.Max(1, params.Param1/2), params.Param1)
	if err != nil {
		return nil, err
	}

	return houghCircles(edges, params), nil
}

// candidate is a center cell that passed the vote threshold.
type candidate struct {
	cell  int
	votes int
}

func houghCircles(edges *imaging.EdgeMap, p HoughParams) []Circle {
	circles := make([]Circle, 0)

	points := edges.Points()
	if len(points) == 0 {
		return circles
	}

	idp := 1 / p.DP
	accW := int(math.Ceil(float64(edges.Width)*idp)) + 1
	accH := int(math.Ceil(float64(edges.Height)*idp)) + 1
	acc := make([]int, accW*accH)

	minR := float64(p.MinRadius)
	maxR := float64(p.MaxRadius)
	steps := int(math.Ceil((maxR - minR) * idp))

	// Center voting
	for _, pt := range points {
		gx, gy := edges.Gradient(pt.X, pt.Y)
		mag := math.Hypot(gx, gy)
		if mag == 0 {
			continue
		}
		sx, sy := gx/mag, gy/mag

		for _, sign := range [2]float64{1, -1} {
			last := -1
			for k := 0; k <= steps; k++ {
				r := math.Min(minR+float64(k)*p.DP, maxR)
				ax := (float64(pt.X) + sign*r*sx + 0.5) * idp
				ay := (float64(pt.Y) + sign*r*sy + 0.5) * idp
				// A ray that has left the accumulator never re-enters it.
				if ax < 0 || ay < 0 || ax >= float64(accW) || ay >= float64(accH) {
					break
				}
				cell := int(ay)*accW + int(ax)
				if cell != last {
					acc[cell]++
					last = cell
				}
			}
		}
	}

	// Candidate centers: above threshold and a local maximum. Ties with the
	// right/lower neighbour go to this cell so plateaus yield one candidate.
	candidates := make([]candidate, 0)
	for y := 0; y < accH; y++ {
		for x := 0; x < accW; x++ {
			i := y*accW + x
			v := acc[i]
			if float64(v) <= p.Param2 {
				continue
			}
			if x > 0 && v <= acc[i-1] {
				continue
			}
			if x < accW-1 && v < acc[i+1] {
				continue
			}
			if y > 0 && v <= acc[i-accW] {
				continue
			}
			if y < accH-1 && v < acc[i+accW] {
				continue
			}
			candidates = append(candidates, candidate{cell: i, votes: v})
		}
	}

	// Strongest first; scan order breaks ties so results are deterministic.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].votes > candidates[j].votes
	})

	minDist2 := p.MinDist * p.MinDist
	nbins := int((maxR-minR)*idp) + 1
	hist := make([]int, nbins)
	sums := make([]float64, nbins)

	for _, c := range candidates {
		cx := (float64(c.cell%accW)+0.5)*p.DP - 0.5
		cy := (float64(c.cell/accW)+0.5)*p.DP - 0.5

		suppressed := false
		for _, kept := range circles {
			dx := kept.Center.X - float64(edges.Origin.X) - cx
			dy := kept.Center.Y - float64(edges.Origin.Y) - cy
			if dx*dx+dy*dy < minDist2 {
				suppressed = true
				break
			}
		}
		if suppressed {
			continue
		}

		for i := range hist {
			hist[i] = 0
			sums[i] = 0
		}

		// Points are in scan order, so the rows within maxR of the center
		// form one contiguous slab.
		lo := sort.Search(len(points), func(i int) bool { return float64(points[i].Y) >= cy-maxR })
		hi := sort.Search(len(points), func(i int) bool { return float64(points[i].Y) > cy+maxR })
		for _, pt := range points[lo:hi] {
			d := math.Hypot(float64(pt.X)-cx, float64(pt.Y)-cy)
			if d < minR || d > maxR {
				continue
			}
			b := int((d - minR) * idp)
			if b >= nbins {
				b = nbins - 1
			}
			hist[b]++
			sums[b] += d
		}

		bestBin, bestCount := -1, 0
		for b := 0; b < nbins; b++ {
			count := hist[b]
			if b > 0 {
				count += hist[b-1]
			}
			if b < nbins-1 {
				count += hist[b+1]
			}
			if count > bestCount {
				bestBin, bestCount = b, count
			}
		}
		if bestBin < 0 || float64(bestCount) <= p.Param2 {
			continue
		}

		total := sums[bestBin]
		if bestBin > 0 {
			total += sums[bestBin-1]
		}
		if bestBin < nbins-1 {
			total += sums[bestBin+1]
		}
		radius := total / float64(bestCount)
		if radius < minR || radius > maxR {
			continue
		}

		circles = append(circles, Circle{
			Center: Point{
				X: cx + float64(edges.Origin.X),
				Y: cy + float64(edges.Origin.Y),
			},
			Radius: radius,
			Votes:  c.votes,
		})
	}

	return circles
}
