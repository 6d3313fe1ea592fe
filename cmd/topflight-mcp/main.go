package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/topflight-lang/topflight"
)

// ExecuteInput is the argument of the execute_script tool.
type ExecuteInput struct {
	Code string   `json:"code" jsonschema:"TopFlight source, one instruction or routine delimiter per line"`
	Args []string `json:"args,omitempty" jsonschema:"values stored in the args variable as ARRAY_OF_STRING"`
}

// ExecuteOutput is the result of the execute_script tool. Error and Line are
// set when a line failed; Output then holds what was printed before it.
type ExecuteOutput struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
	Line   int    `json:"line,omitempty"`
}

var executeTool = &mcp.Tool{
	Name:        "execute_script",
	Description: "Run a TopFlight script in a fresh session and return what it printed",
}

// executeHandler runs each call in its own session.
func executeHandler(ip *topflight.Interpreter) mcp.ToolHandlerFor[ExecuteInput, ExecuteOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in ExecuteInput) (*mcp.CallToolResult, ExecuteOutput, error) {
		output, err := ip.Execute(in.Code, in.Args...)
		result := ExecuteOutput{Output: output}
		if err != nil {
			var le *topflight.LineError
			if errors.As(err, &le) {
				result.Error = le.Err.Error()
				result.Line = le.Line
			} else {
				result.Error = err.Error()
			}
		}
		return nil, result, nil
	}
}

func newServer(ip *topflight.Interpreter) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "topflight", Version: topflight.Version}, nil)
	mcp.AddTool(server, executeTool, executeHandler(ip))
	return server
}

func main() {
	maxDepth := flag.Int("max-depth", topflight.DefaultMaxCallDepth, "Maximum routine call depth")
	maxSteps := flag.Int("max-steps", 10_000_000, "Maximum instructions one line may run (0 for no limit)")
	flag.Parse()

	config := topflight.DefaultConfig()
	config.MaxCallDepth = *maxDepth
	config.MaxSteps = *maxSteps
	config.ShowErrorContext = false
	ip := topflight.New(config)
	// stdout carries the protocol.
	ip.Logger().SetOutput(os.Stderr, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newServer(ip).Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		ip.Logger().Fatal("%v", err)
		os.Exit(1)
	}
}
