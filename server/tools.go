package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/njchilds90/apoptosim/loop"
	"github.com/njchilds90/apoptosim/models"
	"github.com/njchilds90/apoptosim/symbolic"
)

// ToolRequest is an agent tool call.
type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

// ToolResponse carries either a result or an error message.
type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func (s *Server) tool(c *gin.Context) {
	var req ToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ToolResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Tool == "solve" && s.limiter != nil && !s.limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, ToolResponse{Error: "rate limit exceeded"})
		return
	}
	c.JSON(http.StatusOK, s.HandleToolCall(c.Request.Context(), req))
}

func (s *Server) schema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": ToolSpec()})
}

// HandleToolCall runs one tool. Failures are reported in the response.
func (s *Server) HandleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		str, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return str, nil
	}
	getInt := func(key string) int {
		if f, ok := req.Params[key].(float64); ok {
			return int(f)
		}
		return 0
	}

	switch req.Tool {
	case "models":
		return ToolResponse{Result: models.Catalog()}

	case "describe":
		name, err := getString("model")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		src, err := models.Source(name, getInt("mitochondria"), loop.WithCache(s.cache), loop.WithLogger(s.logger))
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{String: src}

	case "parse":
		src, err := getString("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		e, err := symbolic.Parse(src)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{
			Result: map[string]interface{}{
				"expr":         symbolic.JSONValue(e),
				"free_symbols": symbolic.SortedFreeSymbols(e),
			},
			LaTeX:  symbolic.LaTeX(e),
			String: symbolic.String(e),
		}

	case "solve":
		var sreq models.Request
		data, err := json.Marshal(req.Params)
		if err == nil {
			err = json.Unmarshal(data, &sreq)
		}
		if err == nil {
			err = validate.Struct(&sreq)
		}
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		if len(sreq.SaveAt) > s.cfg.MaxSavePoints {
			return ToolResponse{Error: "too many save points"}
		}
		if s.cfg.SolveTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.cfg.SolveTimeout)
			defer cancel()
		}
		tb, err := models.Solve(ctx, sreq, loop.WithCache(s.cache), loop.WithLogger(s.logger))
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{Result: tb}

	case "tool_spec":
		return ToolResponse{Result: ToolSpec(), String: "tool specification"}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// ToolSpec describes the tools for agent registration.
func ToolSpec() []map[string]interface{} {
	return []map[string]interface{}{
		ts("models", "List the built-in models", []string{}, map[string]string{}),
		ts("describe", "Compiled right-hand side of a model as program text", []string{"model"},
			map[string]string{"model": "string", "mitochondria": "integer"}),
		ts("parse", "Parse and simplify a rate expression", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("solve", "Integrate a model. Loop models accept replicates, loop_values and output", []string{"model", "save_at"},
			map[string]string{
				"model":        "string",
				"mitochondria": "integer",
				"values":       "object",
				"loop_values":  "object",
				"replicates":   "integer",
				"save_at":      "array",
				"output":       "string",
				"solver":       "string",
			}),
		ts("tool_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
