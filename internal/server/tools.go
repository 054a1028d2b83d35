package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the schema shared by every tool that reads an image file.
func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file (JPEG, PNG, BMP or GIF)",
	}
}

// rulesProperties describes the optional denomination override accepted by
// the counting and matching tools.
func rulesProperties() map[string]interface{} {
	return map[string]interface{}{
		"rules": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"radius": map[string]interface{}{"type": "number"},
					"value":  map[string]interface{}{"type": "string"},
				},
				"required": []string{"radius", "value"},
			},
			"description": "Optional ordered denomination table. The first rule within tolerance wins. Defaults to the configured table.",
		},
		"tolerance": map[string]interface{}{
			"type":        "number",
			"description": "Optional matching tolerance in pixels. Defaults to the configured tolerance (5).",
		},
	}
}

func merge(props ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, p := range props {
		for k, v := range p {
			out[k] = v
		}
	}
	return out
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "coins_count",
			Description: "Detect coins in a photo, classify each by pixel radius and return the total value with an annotated PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(map[string]interface{}{
					"path": pathProperty(),
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the annotated image as base64 PNG (default true)",
						"default":     true,
					},
				}, rulesProperties()),
				"required": []string{"path"},
			},
		},
		{
			Name:        "coins_count_batch",
			Description: "Count coins in several photos in parallel and return per-image totals and a grand total.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to the image files",
					},
				}, rulesProperties()),
				"required": []string{"paths"},
			},
		},
		{
			Name:        "coins_detect_circles",
			Description: "Run only the circle detector and return every candidate circle, matched or not.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"dp": map[string]interface{}{
						"type":        "number",
						"description": "Inverse accumulator resolution ratio (default 1.2)",
					},
					"min_dist": map[string]interface{}{
						"type":        "number",
						"description": "Minimum distance between circle centers in pixels (default 30)",
					},
					"param1": map[string]interface{}{
						"type":        "number",
						"description": "High Canny threshold (default 200)",
					},
					"param2": map[string]interface{}{
						"type":        "number",
						"description": "Center vote threshold (default 30)",
					},
					"min_radius": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum radius in pixels (default 5)",
					},
					"max_radius": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum radius in pixels (default 50)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "coins_match_radius",
			Description: "Classify a single radius against the denomination table.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(map[string]interface{}{
					"radius": map[string]interface{}{
						"type":        "number",
						"description": "Circle radius in pixels",
					},
				}, rulesProperties()),
				"required": []string{"radius"},
			},
		},
		{
			Name:        "coins_edge_map",
			Description: "Show the Canny edge map the circle detector works from, as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"threshold_low": map[string]interface{}{
						"type":        "number",
						"description": "Low threshold (default param1/2)",
					},
					"threshold_high": map[string]interface{}{
						"type":        "number",
						"description": "High threshold (default param1)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "coins_rules",
			Description: "Return the active denomination table and matching tolerance.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
