/*
Package server exposes the selection pipeline to a host process over
line-delimited JSON-RPC 2.0 on stdio.

Methods:
  - rules/select   {message, directory} → ordered {rule, score, content} list
  - rules/classify {message}            → class
  - context/detect {directory}          → project context
  - cache/stats                         → cache counters
  - cache/clear                         → ok

The host invocation point supplies the prompt and working directory on
each turn and injects the returned rules into its downstream prompt.
*/
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/PaulDuvall/rules-engine/internal/engine"
)

// Server reads requests from in and writes responses to out.
type Server struct {
	engine *engine.Engine
	in     io.Reader
	out    io.Writer
	log    *zap.Logger
}

// New creates a Server around an engine. A nil log falls back to no-op.
func New(eng *engine.Engine, in io.Reader, out io.Writer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{engine: eng, in: in, out: out, log: log}
}

// Request is an incoming JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is an outgoing JSON-RPC response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON-RPC error codes used by the server.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Run serves requests until the input stream closes or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.handle(ctx, line)
		if resp != nil {
			s.send(resp)
		}
	}
	return scanner.Err()
}

// handle dispatches one request line.
func (s *Server) handle(ctx context.Context, data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return &Response{
			JSONRPC: "2.0",
			Error:   &Error{Code: codeParseError, Message: "invalid JSON-RPC request"},
		}
	}

	switch req.Method {
	case "rules/select":
		return s.handleSelect(ctx, &req)
	case "rules/classify":
		return s.handleClassify(&req)
	case "context/detect":
		return s.handleDetect(&req)
	case "cache/stats":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: s.engine.Cache().GetStats()}
	case "cache/clear":
		s.engine.Cache().Clear()
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]bool{"ok": true}}
	default:
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &Error{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)},
		}
	}
}

// selectParams are the parameters for rules/select.
type selectParams struct {
	Message   string `json:"message"`
	Directory string `json:"directory"`
}

func (s *Server) handleSelect(ctx context.Context, req *Request) *Response {
	var params selectParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return &Response{
			JSONRPC: "2.0", ID: req.ID,
			Error: &Error{Code: codeInvalidParams, Message: "expected {message, directory}"},
		}
	}

	result, err := s.engine.Run(ctx, params.Message, params.Directory)
	if err != nil {
		s.log.Error("pipeline run failed", zap.Error(err))
		return &Response{
			JSONRPC: "2.0", ID: req.ID,
			Error: &Error{Code: codeInternalError, Message: err.Error()},
		}
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

type classifyParams struct {
	Message string `json:"message"`
}

func (s *Server) handleClassify(req *Request) *Response {
	var params classifyParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return &Response{
			JSONRPC: "2.0", ID: req.ID,
			Error: &Error{Code: codeInvalidParams, Message: "expected {message}"},
		}
	}
	cls := s.engine.Classifier().Classify(params.Message)
	return &Response{
		JSONRPC: "2.0", ID: req.ID,
		Result: map[string]interface{}{
			"class":      cls,
			"actionable": s.engine.Classifier().Actionable(cls),
		},
	}
}

type detectParams struct {
	Directory string `json:"directory"`
}

func (s *Server) handleDetect(req *Request) *Response {
	var params detectParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return &Response{
			JSONRPC: "2.0", ID: req.ID,
			Error: &Error{Code: codeInvalidParams, Message: "expected {directory}"},
		}
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: s.engine.Context(params.Directory)}
}

// send writes one response line.
func (s *Server) send(resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("failed to marshal response", zap.Error(err))
		return
	}
	data = append(data, '\n')
	if _, err := s.out.Write(data); err != nil {
		s.log.Error("failed to write response", zap.Error(err))
	}
}
