//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/engine"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine(engine.DefaultOptions())

	// Create the engine API object
	sphereEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	sphereEngine.Set("apply", js.FuncOf(apply))
	sphereEngine.Set("loadDocument", js.FuncOf(loadDocument))
	sphereEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	sphereEngine.Set("newDocument", js.FuncOf(newDocument))

	// --- Queries (frontend ← backend) ---
	sphereEngine.Set("render", js.FuncOf(render))
	sphereEngine.Set("hitTest", js.FuncOf(hitTest))
	sphereEngine.Set("getState", js.FuncOf(getState))
	sphereEngine.Set("getSelection", js.FuncOf(getSelection))
	sphereEngine.Set("getTriangle", js.FuncOf(getTriangle))
	sphereEngine.Set("getPointInfo", js.FuncOf(getPointInfo))
	sphereEngine.Set("getDocument", js.FuncOf(getDocument))

	// Register on global scope
	js.Global().Set("sphereEngine", sphereEngine)

	// Signal that WASM is ready
	js.Global().Set("sphereWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Command Handlers ---

// apply takes one wire command, {"kind": "...", ...fields}, as a JSON string.
func apply(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing command JSON"})
	}

	cmd, err := engine.DecodeCommand([]byte(args[0].String()))
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	if err := eng.Apply(cmd); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}

	if err := eng.LoadDocument([]byte(args[0].String())); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	eng.LoadSampleDocument()
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func newDocument(this js.Value, args []js.Value) interface{} {
	eng.NewDocument()
	return nil
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetState())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelection())
}

func getTriangle(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetTriangle())
}

func getPointInfo(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("null")
	}
	info, ok := eng.PointInfo(args[0].String())
	if !ok {
		return js.ValueOf("null")
	}
	data, err := json.Marshal(info)
	if err != nil {
		return js.ValueOf("null")
	}
	return js.ValueOf(string(data))
}

func getDocument(this js.Value, args []js.Value) interface{} {
	doc, err := eng.GetDocument()
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(doc)
}
