package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ironsheep/coin-counter/internal/coins"
	"github.com/ironsheep/coin-counter/internal/imaging"
	"github.com/ironsheep/coin-counter/internal/logger"
)

// ServerName and ServerVersion are reported during initialize.
const (
	ServerName    = "coin-counter"
	ServerVersion = "0.1.0"
)

// Server handles MCP protocol communication
type Server struct {
	cache   *imaging.ImageCache
	counter *coins.Counter
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server that counts with the given counter.
func New(counter *coins.Counter) *Server {
	return &Server{
		cache:   imaging.NewImageCache(),
		counter: counter,
	}
}

// NewDefault creates a server using the reference configuration.
func NewDefault() (*Server, error) {
	counter, err := coins.New(coins.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return New(counter), nil
}

// Serve reads newline-delimited JSON-RPC requests from r and writes
// responses to w until r is exhausted or ctx is cancelled. Cancellation is a
// clean shutdown and returns nil.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		// Batch requests can list many paths
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)

		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	encoder := json.NewEncoder(w)

	for {
		select {
		case <-ctx.Done():
			logger.Info("server stopping")
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("scanner error: %w", err)
				}
				return nil
			}
			s.serveLine(encoder, line)
		}
	}
}

func (s *Server) serveLine(encoder *json.Encoder, line []byte) {
	if len(line) == 0 {
		return
	}

	var req MCPRequest
	if err := json.Unmarshal(line, &req); err != nil {
		logger.WithError(err).Warn("failed to parse request")
		if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
			logger.WithError(err).Error("failed to encode response")
		}
		return
	}

	resp := s.handleRequest(&req)
	if resp != nil {
		if err := encoder.Encode(resp); err != nil {
			logger.WithError(err).Error("failed to encode response")
		}
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	logger.WithField("method", req.Method).Debug("request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return s.errorResponse(req.ID, -32601, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": ServerVersion,
			},
		},
	}
}
