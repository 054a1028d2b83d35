// Package server implements the MCP (Model Context Protocol) server for the
// coin counter.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Information:
//   - image_load: Load image and get metadata
//
// Counting:
//   - coins_count: Total value of the coins in one photo, with annotated PNG
//   - coins_count_batch: Per-image and grand totals for several photos
//
// Inspection:
//   - coins_detect_circles: Raw circle candidates with tunable Hough parameters
//   - coins_match_radius: Classify one radius against the denomination table
//   - coins_edge_map: The Canny edge map the detector votes from
//   - coins_rules: The active denomination table and tolerance
//
// The counting and matching tools accept an optional "rules" array and
// "tolerance" that replace the configured table for that call only.
//
// # Image Caching
//
// Images are cached by path and reused across tool calls for the lifetime
// of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000 and data {"type": ..., "details": ...}, where type is one of
// invalid_input, config, io or internal. Malformed params yield -32602 and
// unparseable lines -32700.
//
// # Usage
//
//	srv, err := server.NewDefault()
//	if err != nil {
//	    return err
//	}
//	return srv.Serve(ctx, os.Stdin, os.Stdout)
package server
