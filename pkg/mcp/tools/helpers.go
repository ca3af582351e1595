package tools

import "github.com/mark3labs/mcp-go/mcp"

// getOptionalFloat extracts an optional numeric argument from the request.
// JSON numbers arrive as float64; callers convert as needed.
func getOptionalFloat(req mcp.CallToolRequest, key string) (float64, bool) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return 0, false
	}
	val, ok := args[key].(float64)
	return val, ok
}
