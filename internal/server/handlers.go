package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/shopspring/decimal"

	"github.com/ironsheep/coin-counter/internal/coins"
	"github.com/ironsheep/coin-counter/internal/detection"
	apperrors "github.com/ironsheep/coin-counter/internal/errors"
	"github.com/ironsheep/coin-counter/internal/imaging"
	"github.com/ironsheep/coin-counter/internal/logger"
)

// NoCoinsMessage is returned when the detector finds no circles at all.
const NoCoinsMessage = "No coins detected in the image."

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "coins_count").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// and the error type in data.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.toolError(req.ID, params.Name, err)
	}

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return s.toolError(req.ID, params.Name, apperrors.NewInternalError("failed to encode result", err))
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": string(text),
				},
			},
		},
	}
}

func (s *Server) toolError(id interface{}, tool string, err error) *MCPResponse {
	logger.WithError(err).WithField("tool", tool).Warn("tool failed")
	return s.errorResponse(id, -32000, "Tool execution failed", map[string]string{
		"type":    string(apperrors.TypeOf(err)),
		"details": err.Error(),
	})
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "coins_count":
		return s.handleCoinsCount(args)
	case "coins_count_batch":
		return s.handleCoinsCountBatch(args)
	case "coins_detect_circles":
		return s.handleCoinsDetectCircles(args)
	case "coins_match_radius":
		return s.handleCoinsMatchRadius(args)
	case "coins_edge_map":
		return s.handleCoinsEdgeMap(args)
	case "coins_rules":
		return s.handleCoinsRules()
	default:
		return nil, apperrors.InvalidInputf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	if str, ok := data.(string); ok && str == "" {
		data = nil
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(args, v); err != nil {
		return apperrors.NewInvalidInputError("invalid arguments", err)
	}
	return nil
}

// === Image Information ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Counting ===

// ruleOverrides are the optional per-call denomination settings.
type ruleOverrides struct {
	Rules     []coins.RuleSpec `json:"rules,omitempty"`
	Tolerance *float64         `json:"tolerance,omitempty"`
}

// counterFor returns the server's counter, or a derived one when the call
// overrides the rule table or tolerance.
func (s *Server) counterFor(o ruleOverrides) (*coins.Counter, error) {
	if len(o.Rules) == 0 && o.Tolerance == nil {
		return s.counter, nil
	}

	opts := make([]coins.Option, 0, 2)
	if len(o.Rules) > 0 {
		rules, err := coins.ParseRules(o.Rules)
		if err != nil {
			return nil, err
		}
		opts = append(opts, coins.WithRules(rules))
	}
	if o.Tolerance != nil {
		opts = append(opts, coins.WithTolerance(*o.Tolerance))
	}
	return coins.New(s.counter.Config(), opts...)
}

// CoinInfo describes one matched coin in tool output.
type CoinInfo struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Value  string  `json:"value"`
	Label  string  `json:"label"`
}

// CountResult is the coins_count tool output.
type CountResult struct {
	Total       string     `json:"total"`
	Display     string     `json:"display"`
	Detected    int        `json:"detected"`
	Matched     int        `json:"matched"`
	Unmatched   int        `json:"unmatched"`
	Coins       []CoinInfo `json:"coins"`
	Message     string     `json:"message,omitempty"`
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
	ImageBase64 string     `json:"image_base64,omitempty"`
	MimeType    string     `json:"mime_type,omitempty"`
}

func newCountResult(res *coins.Result, symbol string) *CountResult {
	out := &CountResult{
		Total:     res.TotalString(),
		Display:   fmt.Sprintf("Total Value of Coins: %s", coins.FormatValue(symbol, res.Total)),
		Detected:  res.Detected,
		Matched:   len(res.Coins),
		Unmatched: res.Unmatched(),
		Coins:     make([]CoinInfo, 0, len(res.Coins)),
	}
	for _, c := range res.Coins {
		out.Coins = append(out.Coins, CoinInfo{
			X:      c.Circle.Center.X,
			Y:      c.Circle.Center.Y,
			Radius: c.Circle.Radius,
			Value:  c.Value.StringFixed(2),
			Label:  coins.FormatValue(symbol, c.Value),
		})
	}
	if res.Detected == 0 {
		out.Message = NoCoinsMessage
	}
	return out
}

type coinsCountArgs struct {
	Path         string `json:"path"`
	IncludeImage *bool  `json:"include_image,omitempty"`
	ruleOverrides
}

func (s *Server) handleCoinsCount(args json.RawMessage) (interface{}, error) {
	var a coinsCountArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	counter, err := s.counterFor(a.ruleOverrides)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	res, err := counter.Count(img)
	if err != nil {
		return nil, err
	}

	out := newCountResult(res, counter.Config().Annotate.CurrencySymbol)
	if a.IncludeImage == nil || *a.IncludeImage {
		encoded, err := imaging.EncodePNGBase64(res.Annotated)
		if err != nil {
			return nil, err
		}
		out.Width = res.Annotated.Bounds().Dx()
		out.Height = res.Annotated.Bounds().Dy()
		out.ImageBase64 = encoded
		out.MimeType = "image/png"
	}
	return out, nil
}

type coinsCountBatchArgs struct {
	Paths []string `json:"paths"`
	ruleOverrides
}

// BatchItem is one image's summary in coins_count_batch output.
type BatchItem struct {
	Path string `json:"path"`
	*CountResult
}

// BatchResult is the coins_count_batch tool output.
type BatchResult struct {
	Total   string      `json:"total"`
	Display string      `json:"display"`
	Images  []BatchItem `json:"images"`
}

func (s *Server) handleCoinsCountBatch(args json.RawMessage) (interface{}, error) {
	var a coinsCountBatchArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, apperrors.InvalidInputf("paths must list at least one image")
	}
	counter, err := s.counterFor(a.ruleOverrides)
	if err != nil {
		return nil, err
	}

	imgs := make([]image.Image, len(a.Paths))
	for i, p := range a.Paths {
		img, err := s.cache.Load(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		imgs[i] = img
	}

	results, err := counter.CountBatch(context.Background(), imgs)
	if err != nil {
		return nil, err
	}

	symbol := counter.Config().Annotate.CurrencySymbol
	grand := decimal.Zero
	out := &BatchResult{Images: make([]BatchItem, len(results))}
	for i, res := range results {
		grand = grand.Add(res.Total)
		out.Images[i] = BatchItem{Path: a.Paths[i], CountResult: newCountResult(res, symbol)}
	}
	out.Total = grand.StringFixed(2)
	out.Display = fmt.Sprintf("Total Value of Coins: %s", coins.FormatValue(symbol, grand))
	return out, nil
}

// === Detection ===

type coinsDetectCirclesArgs struct {
	Path      string  `json:"path"`
	DP        float64 `json:"dp"`
	MinDist   float64 `json:"min_dist"`
	Param1    float64 `json:"param1"`
	Param2    float64 `json:"param2"`
	MinRadius int     `json:"min_radius"`
	MaxRadius int     `json:"max_radius"`
}

// CirclesResult is the coins_detect_circles tool output.
type CirclesResult struct {
	Circles []detection.Circle `json:"circles"`
	Count   int                `json:"count"`
	Message string             `json:"message,omitempty"`
}

func (s *Server) handleCoinsDetectCircles(args json.RawMessage) (interface{}, error) {
	var a coinsDetectCirclesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	params := s.counter.Config().Hough
	if a.DP != 0 {
		params.DP = a.DP
	}
	if a.MinDist != 0 {
		params.MinDist = a.MinDist
	}
	if a.Param1 != 0 {
		params.Param1 = a.Param1
	}
	if a.Param2 != 0 {
		params.Param2 = a.Param2
	}
	if a.MinRadius != 0 {
		params.MinRadius = a.MinRadius
	}
	if a.MaxRadius != 0 {
		params.MaxRadius = a.MaxRadius
	}

	counter, err := coins.New(s.counter.Config(), coins.WithHoughParams(params))
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	circles, err := counter.Detect(img)
	if err != nil {
		return nil, err
	}

	out := &CirclesResult{Circles: circles, Count: len(circles)}
	if len(circles) == 0 {
		out.Message = NoCoinsMessage
	}
	return out, nil
}

type coinsMatchRadiusArgs struct {
	Radius *float64 `json:"radius"`
	ruleOverrides
}

// MatchResult is the coins_match_radius tool output. Value is null when no
// rule matched.
type MatchResult struct {
	Radius  float64 `json:"radius"`
	Matched bool    `json:"matched"`
	Value   *string `json:"value"`
	Label   string  `json:"label,omitempty"`
}

func (s *Server) handleCoinsMatchRadius(args json.RawMessage) (interface{}, error) {
	var a coinsMatchRadiusArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Radius == nil {
		return nil, apperrors.InvalidInputf("radius is required")
	}
	counter, err := s.counterFor(a.ruleOverrides)
	if err != nil {
		return nil, err
	}

	cfg := counter.Config()
	out := &MatchResult{Radius: *a.Radius}
	if v, ok := coins.Match(*a.Radius, cfg.Rules, cfg.Tolerance); ok {
		fixed := v.StringFixed(2)
		out.Matched = true
		out.Value = &fixed
		out.Label = coins.FormatValue(cfg.Annotate.CurrencySymbol, v)
	}
	return out, nil
}

type coinsEdgeMapArgs struct {
	Path          string  `json:"path"`
	ThresholdLow  float64 `json:"threshold_low"`
	ThresholdHigh float64 `json:"threshold_high"`
}

func (s *Server) handleCoinsEdgeMap(args json.RawMessage) (interface{}, error) {
	var a coinsEdgeMapArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cfg := s.counter.Config()
	if a.ThresholdHigh == 0 {
		a.ThresholdHigh = cfg.Hough.Param1
	}
	if a.ThresholdLow == 0 {
		a.ThresholdLow = a.ThresholdHigh / 2
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, cfg.Preprocess, a.ThresholdLow, a.ThresholdHigh)
}

// RulesResult is the coins_rules tool output.
type RulesResult struct {
	Rules          []coins.RuleSpec `json:"rules"`
	Tolerance      float64          `json:"tolerance"`
	CurrencySymbol string           `json:"currency_symbol"`
	Policy         string           `json:"policy"`
}

func (s *Server) handleCoinsRules() (interface{}, error) {
	cfg := s.counter.Config()
	return &RulesResult{
		Rules:          coins.Specs(cfg.Rules),
		Tolerance:      cfg.Tolerance,
		CurrencySymbol: cfg.Annotate.CurrencySymbol,
		Policy:         "first-match",
	}, nil
}
