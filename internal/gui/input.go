package gui

import (
	"github.com/inkyblackness/imgui-go/v4"

	"github.com/coreman2200/funtimes-imguiws/internal/frame"
)

// Browser key codes (KeyboardEvent.keyCode) used by the web client.
const (
	keyBackspace = 8
	keyTab       = 9
	keyEnter     = 13
	keyShift     = 16
	keyCtrl      = 17
	keyAlt       = 18
	keyEscape    = 27
	keySpace     = 32
	keyPageUp    = 33
	keyPageDown  = 34
	keyEnd       = 35
	keyHome      = 36
	keyLeft      = 37
	keyUp        = 38
	keyRight     = 39
	keyDown      = 40
	keyInsert    = 45
	keyDelete    = 46
	keyMeta      = 91
)

func mapKeys(io imgui.IO) {
	io.KeyMap(imgui.KeyTab, keyTab)
	io.KeyMap(imgui.KeyLeftArrow, keyLeft)
	io.KeyMap(imgui.KeyRightArrow, keyRight)
	io.KeyMap(imgui.KeyUpArrow, keyUp)
	io.KeyMap(imgui.KeyDownArrow, keyDown)
	io.KeyMap(imgui.KeyPageUp, keyPageUp)
	io.KeyMap(imgui.KeyPageDown, keyPageDown)
	io.KeyMap(imgui.KeyHome, keyHome)
	io.KeyMap(imgui.KeyEnd, keyEnd)
	io.KeyMap(imgui.KeyInsert, keyInsert)
	io.KeyMap(imgui.KeyDelete, keyDelete)
	io.KeyMap(imgui.KeyBackspace, keyBackspace)
	io.KeyMap(imgui.KeySpace, keySpace)
	io.KeyMap(imgui.KeyEnter, keyEnter)
	io.KeyMap(imgui.KeyEscape, keyEscape)
	io.KeyMap(imgui.KeyA, 'A')
	io.KeyMap(imgui.KeyC, 'C')
	io.KeyMap(imgui.KeyV, 'V')
	io.KeyMap(imgui.KeyX, 'X')
	io.KeyMap(imgui.KeyY, 'Y')
	io.KeyMap(imgui.KeyZ, 'Z')
}

// Apply feeds queued client input into imgui. Call it before Frame.
func (c *Context) Apply(events []frame.Event) {
	for _, ev := range events {
		switch ev.Type {
		case frame.MouseMove:
			c.io.SetMousePosition(imgui.Vec2{X: ev.X, Y: ev.Y})
		case frame.MouseDown:
			c.io.SetMouseButtonDown(ev.Button, true)
		case frame.MouseUp:
			c.io.SetMouseButtonDown(ev.Button, false)
		case frame.Wheel:
			c.io.AddMouseWheelDelta(ev.DX, ev.DY)
		case frame.KeyDown:
			c.io.KeyPress(ev.Key)
		case frame.KeyUp:
			c.io.KeyRelease(ev.Key)
		case frame.Char:
			c.io.AddInputCharacters(ev.Text)
		case frame.Resize:
			c.width, c.height = float32(ev.Width), float32(ev.Height)
			c.io.SetDisplaySize(imgui.Vec2{X: c.width, Y: c.height})
		}
	}
	c.io.KeyShift(keyShift, keyShift)
	c.io.KeyCtrl(keyCtrl, keyCtrl)
	c.io.KeyAlt(keyAlt, keyAlt)
	c.io.KeySuper(keyMeta, keyMeta)
}
