//go:build js && wasm

// Command wasm runs the artboard engine and interaction machine in the
// browser. Every call takes and returns JSON strings.
package main

import (
	"encoding/json"
	"errors"
	"syscall/js"

	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/document"
	"github.com/inamate/artboard/internal/engine"
	"github.com/inamate/artboard/internal/geometry"
	"github.com/inamate/artboard/internal/interaction"
)

var (
	eng     *engine.Engine
	machine *interaction.Machine
)

func main() {
	eng = engine.New()
	machine = interaction.New(eng)

	api := js.Global().Get("Object").New()

	// Commands
	api.Set("loadState", js.FuncOf(loadState))
	api.Set("loadSampleState", js.FuncOf(loadSampleState))
	api.Set("addComponent", js.FuncOf(addComponent))
	api.Set("updateComponent", js.FuncOf(updateComponent))
	api.Set("deleteComponent", js.FuncOf(deleteComponent))
	api.Set("duplicate", js.FuncOf(duplicate))
	api.Set("group", js.FuncOf(group))
	api.Set("ungroup", js.FuncOf(ungroup))
	api.Set("importNodes", js.FuncOf(importNodes))
	api.Set("selectNode", js.FuncOf(selectNode))
	api.Set("selectNodes", js.FuncOf(selectNodes))
	api.Set("updateSettings", js.FuncOf(updateSettings))

	// Pointer
	api.Set("pointerDown", js.FuncOf(pointerDown))
	api.Set("pointerMove", js.FuncOf(pointerMove))
	api.Set("pointerUp", js.FuncOf(pointerUp))
	api.Set("pointerLeave", js.FuncOf(pointerLeave))
	api.Set("drop", js.FuncOf(drop))

	// Queries
	api.Set("getState", js.FuncOf(getState))
	api.Set("getSettings", js.FuncOf(getSettings))
	api.Set("getGesture", js.FuncOf(getGesture))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))

	api.Set("subscribe", js.FuncOf(subscribe))

	js.Global().Set("artboardEngine", api)
	js.Global().Set("artboardWasmReady", js.ValueOf(true))

	select {}
}

func result(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return failure(err)
	}
	return js.ValueOf(string(data))
}

func failure(err error) any {
	return js.ValueOf(map[string]any{"error": err.Error()})
}

func ok() any {
	return js.ValueOf(map[string]any{"ok": true})
}

// decodeArg unmarshals the JSON string args[i] into v.
func decodeArg(args []js.Value, i int, v any) error {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return errMissingArg
	}
	return json.Unmarshal([]byte(args[i].String()), v)
}

var errMissingArg = errors.New("missing JSON argument")

func point(args []js.Value) geometry.Point {
	if len(args) < 2 {
		return geometry.Point{}
	}
	return geometry.Point{X: args[0].Float(), Y: args[1].Float()}
}

func loadState(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return failure(errMissingArg)
	}
	state, err := document.Decode([]byte(args[0].String()))
	if err != nil {
		return failure(err)
	}
	if err := eng.Load(state); err != nil {
		return failure(err)
	}
	return ok()
}

func loadSampleState(js.Value, []js.Value) any {
	if err := eng.Load(document.NewSampleState()); err != nil {
		return failure(err)
	}
	return ok()
}

// addComponent(type, x, y) returns the new id, or "" for unknown types.
func addComponent(_ js.Value, args []js.Value) any {
	if len(args) < 3 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.AddComponent(component.Type(args[0].String()), point(args[1:])))
}

// updateComponent(id, patchJSON)
func updateComponent(_ js.Value, args []js.Value) any {
	var patch component.Patch
	if err := decodeArg(args, 1, &patch); err != nil {
		return failure(err)
	}
	return js.ValueOf(eng.UpdateComponent(args[0].String(), patch))
}

func deleteComponent(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.DeleteComponent(args[0].String()))
}

func duplicate(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("")
	}
	id, _ := eng.Duplicate(args[0].String())
	return js.ValueOf(id)
}

// group(idsJSON)
func group(_ js.Value, args []js.Value) any {
	var ids []string
	if err := decodeArg(args, 0, &ids); err != nil {
		return failure(err)
	}
	id, err := eng.Group(ids)
	if err != nil {
		return failure(err)
	}
	return js.ValueOf(id)
}

func ungroup(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return failure(errMissingArg)
	}
	ids, err := eng.Ungroup(args[0].String())
	if err != nil {
		return failure(err)
	}
	return result(ids)
}

// importNodes(nodesJSON) returns the validation problems as JSON.
func importNodes(_ js.Value, args []js.Value) any {
	var nodes []component.Node
	if err := decodeArg(args, 0, &nodes); err != nil {
		return failure(err)
	}
	problems, err := eng.Import(nodes)
	if err != nil {
		return failure(err)
	}
	if problems == nil {
		problems = []component.ValidationError{}
	}
	return result(problems)
}

// selectNode(id|null, additive)
func selectNode(_ js.Value, args []js.Value) any {
	var id string
	if len(args) > 0 && args[0].Type() == js.TypeString {
		id = args[0].String()
	}
	eng.SelectNode(id, len(args) > 1 && args[1].Truthy())
	return nil
}

// selectNodes(idsJSON, additive)
func selectNodes(_ js.Value, args []js.Value) any {
	var ids []string
	if err := decodeArg(args, 0, &ids); err != nil {
		return failure(err)
	}
	eng.SelectNodes(ids, len(args) > 1 && args[1].Truthy())
	return nil
}

func updateSettings(_ js.Value, args []js.Value) any {
	var patch document.SettingsPatch
	if err := decodeArg(args, 0, &patch); err != nil {
		return failure(err)
	}
	return result(eng.UpdateSettings(patch))
}

// pointerDown(x, y, modifier, targetJSON?) hit-tests when no target is given
// and returns the gesture state entered.
func pointerDown(_ js.Value, args []js.Value) any {
	ev := interaction.PointerEvent{Point: point(args), Modifier: len(args) > 2 && args[2].Truthy()}
	var target interaction.Target
	switch {
	case decodeArg(args, 3, &target) == nil:
		ev.Target = target
	default:
		if id := eng.HitTest(ev.Point); id != "" {
			ev.Target = interaction.OnNode(id)
		} else {
			ev.Target = interaction.Canvas()
		}
	}
	return js.ValueOf(machine.PointerDown(ev).String())
}

func pointerMove(_ js.Value, args []js.Value) any {
	machine.PointerMove(interaction.PointerEvent{Point: point(args)})
	return nil
}

func pointerUp(_ js.Value, args []js.Value) any {
	machine.PointerUp(interaction.PointerEvent{Point: point(args)})
	return nil
}

func pointerLeave(js.Value, []js.Value) any {
	machine.PointerLeave()
	return nil
}

// drop(x, y, dataText) returns the new top-level ids.
func drop(_ js.Value, args []js.Value) any {
	if len(args) < 3 {
		return result([]string{})
	}
	ids := machine.Drop(point(args), []byte(args[2].String()))
	if ids == nil {
		ids = []string{}
	}
	return result(ids)
}

func getState(js.Value, []js.Value) any {
	return result(eng.Export())
}

func getSettings(js.Value, []js.Value) any {
	return result(eng.Settings())
}

func getGesture(js.Value, []js.Value) any {
	g := struct {
		State   interaction.State `json:"state"`
		Marquee *geometry.Rect    `json:"marquee,omitempty"`
	}{State: machine.State()}
	if r, ok := machine.Marquee(); ok {
		g.Marquee = &r
	}
	return result(g)
}

func hitTest(_ js.Value, args []js.Value) any {
	return js.ValueOf(eng.HitTest(point(args)))
}

func getSelectionBounds(js.Value, []js.Value) any {
	return result(eng.SelectionBounds())
}

// subscribe(callback) calls callback with every engine event as JSON and
// returns an unsubscribe function.
func subscribe(_ js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return nil
	}
	cb := args[0]
	unsubscribe := eng.Subscribe(func(ev engine.Event) {
		data, err := json.Marshal(ev)
		if err != nil {
			return
		}
		cb.Invoke(string(data))
	})
	var release js.Func
	release = js.FuncOf(func(js.Value, []js.Value) any {
		unsubscribe()
		release.Release()
		return nil
	})
	return release
}
