package coins

import (
	"image"

	"github.com/shopspring/decimal"

	"github.com/ironsheep/coin-counter/internal/detection"
	"github.com/ironsheep/coin-counter/internal/imaging"
)

// Coin is a detected circle that matched a denomination rule.
type Coin struct {
	Circle detection.Circle `json:"circle"`
	Value  decimal.Decimal  `json:"value"`
}

// Result is the outcome of counting one image.
type Result struct {
	// Total is the exact sum of all matched coin values.
	Total decimal.Decimal `json:"total"`

	// Annotated is a copy of the input with matched coins outlined and
	// labelled. It has the input's width and height and starts at (0,0).
	Annotated *image.NRGBA `json:"-"`

	// Coins lists the matched coins in detection order.
	Coins []Coin `json:"coins"`

	// Detected is the number of candidate circles, matched or not.
	Detected int `json:"detected"`
}

// TotalString formats the total with two decimal places.
func (r *Result) TotalString() string {
	return r.Total.StringFixed(2)
}

// Unmatched returns how many detected circles matched no rule.
func (r *Result) Unmatched() int {
	return r.Detected - len(r.Coins)
}

// AnnotateOptions controls the markers drawn for matched coins.
type AnnotateOptions struct {
	Style imaging.AnnotationStyle `json:"style"`

	// CurrencySymbol prefixes every label, e.g. "P" gives "P0.25".
	CurrencySymbol string `json:"currency_symbol"`
}

// DefaultAnnotateOptions returns green outlines with red "P"-prefixed labels.
func DefaultAnnotateOptions() AnnotateOptions {
	return AnnotateOptions{
		Style:          imaging.DefaultAnnotationStyle(),
		CurrencySymbol: "P",
	}
}

// FormatValue renders an amount the way labels and summaries show it.
func FormatValue(symbol string, v decimal.Decimal) string {
	return symbol + v.StringFixed(2)
}

// Aggregate matches every circle against rules, sums the matched values and
// draws the matched coins on a copy of img.
//
// Circles that match no rule are skipped entirely: not counted, not drawn.
// With no circles the result has a zero total and an unmodified copy of img.
// The sum does not depend on the order of circles.
func Aggregate(img image.Image, circles []detection.Circle, rules []Rule, tolerance float64, opts AnnotateOptions) (*Result, error) {
	if err := imaging.ValidateImage(img); err != nil {
		return nil, err
	}

	total := decimal.Zero
	matched := make([]Coin, 0, len(circles))
	markers := make([]imaging.Marker, 0, len(circles))

	for _, c := range circles {
		value, ok := Match(c.Radius, rules, tolerance)
		if !ok {
			continue
		}
		total = total.Add(value)
		matched = append(matched, Coin{Circle: c, Value: value})
		markers = append(markers, imaging.Marker{
			X:      c.Center.X,
			Y:      c.Center.Y,
			Radius: c.Radius,
			Label:  FormatValue(opts.CurrencySymbol, value),
		})
	}

	annotated, err := imaging.Annotate(img, markers, opts.Style)
	if err != nil {
		return nil, err
	}

	return &Result{
		Total:     total,
		Annotated: annotated,
		Coins:     matched,
		Detected:  len(circles),
	}, nil
}
