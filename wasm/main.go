//go:build js && wasm

package main

import (
	"fmt"
	"syscall/js"

	"github.com/topflight-lang/topflight"
)

// wasmTopFlight holds the interpreter shared by all JS calls. Each call runs
// in a fresh session.
type wasmTopFlight struct {
	ip *topflight.Interpreter
}

// executeCode is called from JS: topflight_execute_code(code: string, ...args: string)
// It returns the program output, or the error report if a line failed.
func (w *wasmTopFlight) executeCode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return ""
	}
	scriptArgs := make([]string, 0, len(args)-1)
	for _, a := range args[1:] {
		scriptArgs = append(scriptArgs, a.String())
	}

	output, err := w.ip.Execute(args[0].String(), scriptArgs...)
	if err != nil {
		return err.Error()
	}
	return output
}

// highlightLine is called from JS: topflight_highlight_line(line: string, building: string)
// It returns [[type, begin, end], ...].
func (w *wasmTopFlight) highlightLine(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf([]interface{}{})
	}
	building := ""
	if len(args) > 1 {
		building = args[1].String()
	}
	elems := topflight.Highlight(args[0].String(), building)
	out := make([]interface{}, len(elems))
	for i, e := range elems {
		out[i] = []interface{}{int(e.Type), e.Begin, e.End}
	}
	return js.ValueOf(out)
}

func main() {
	cfg := topflight.DefaultConfig()
	cfg.ShowErrorContext = false

	w := &wasmTopFlight{ip: topflight.New(cfg)}

	js.Global().Set("topflight_execute_code", js.FuncOf(w.executeCode))
	js.Global().Set("topflight_highlight_line", js.FuncOf(w.highlightLine))

	fmt.Println("TopFlight WASM ready!")

	// Keep the WASM runtime alive
	select {}
}
