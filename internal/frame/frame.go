// Package frame defines the messages exchanged between the GUI loop, the
// websocket server and browser clients.
package frame

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message kinds sent to clients.
const (
	KindHello = "hello"
	KindFont  = "font"
	KindFrame = "frame"
)

// VertexLayout describes the byte layout of one vertex and one index.
type VertexLayout struct {
	Stride    int `json:"stride"`
	PosOffset int `json:"pos"`
	UVOffset  int `json:"uv"`
	ColOffset int `json:"col"`
	IndexSize int `json:"idx"`
}

type Command struct {
	ElemCount int        `json:"n"`
	ClipRect  [4]float32 `json:"clip"`
	TextureID uint64     `json:"tex"`
}

type DrawList struct {
	Vertices []byte    `json:"vtx"`
	Indices  []byte    `json:"idx"`
	Commands []Command `json:"cmds"`
}

// Frame is one rendered GUI frame.
type Frame struct {
	ID     uint64       `json:"frame_id"`
	T      int64        `json:"t"`
	Width  float32      `json:"w"`
	Height float32      `json:"h"`
	Layout VertexLayout `json:"layout"`
	Lists  []DrawList   `json:"lists"`
}

// Empty reports whether the frame has nothing to draw.
func (f *Frame) Empty() bool {
	for _, l := range f.Lists {
		if len(l.Commands) > 0 {
			return false
		}
	}
	return true
}

func (f *Frame) Vertices() int {
	if f.Layout.Stride == 0 {
		return 0
	}
	n := 0
	for _, l := range f.Lists {
		n += len(l.Vertices) / f.Layout.Stride
	}
	return n
}

// FontTexture is the RGBA32 font atlas.
type FontTexture struct {
	ID     uint64 `json:"tex"`
	Width  int    `json:"w"`
	Height int    `json:"h"`
	Pixels []byte `json:"rgba"`
}

func (t FontTexture) Valid() bool {
	return t.Width > 0 && t.Height > 0 && len(t.Pixels) == t.Width*t.Height*4
}

// Hello is sent once to every client after connecting.
type Hello struct {
	Name    string  `json:"name"`
	Version string  `json:"version,omitempty"`
	FPS     float64 `json:"fps"`
}

// Envelope wraps every outgoing message.
type Envelope struct {
	Kind  string       `json:"type"`
	Hello *Hello       `json:"hello,omitempty"`
	Font  *FontTexture `json:"font,omitempty"`
	Frame *Frame       `json:"frame,omitempty"`
}

func EncodeHello(h Hello) ([]byte, error) {
	return json.Marshal(Envelope{Kind: KindHello, Hello: &h})
}

func EncodeFont(t FontTexture) ([]byte, error) {
	if !t.Valid() {
		return nil, errors.New("font texture is empty or truncated")
	}
	return json.Marshal(Envelope{Kind: KindFont, Font: &t})
}

func EncodeFrame(f *Frame) ([]byte, error) {
	if f == nil {
		return nil, errors.New("nil frame")
	}
	return json.Marshal(Envelope{Kind: KindFrame, Frame: f})
}

// Input event kinds sent by clients.
const (
	MouseMove = "mouse_move"
	MouseDown = "mouse_down"
	MouseUp   = "mouse_up"
	Wheel     = "wheel"
	KeyDown   = "key_down"
	KeyUp     = "key_up"
	Char      = "char"
	Resize    = "resize"
)

// Event is one input event from a browser client.
type Event struct {
	Type   string  `json:"type"`
	X      float32 `json:"x,omitempty"`
	Y      float32 `json:"y,omitempty"`
	Button int     `json:"button,omitempty"`
	DX     float32 `json:"dx,omitempty"`
	DY     float32 `json:"dy,omitempty"`
	Key    int     `json:"key,omitempty"`
	Text   string  `json:"text,omitempty"`
	Width  int     `json:"w,omitempty"`
	Height int     `json:"h,omitempty"`
}

// MaxMouseButtons is the number of mouse buttons the GUI tracks.
const MaxMouseButtons = 5

// DecodeEvent parses and checks a client message.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, err
	}
	switch ev.Type {
	case MouseMove, Wheel:
	case MouseDown, MouseUp:
		if ev.Button < 0 || ev.Button >= MaxMouseButtons {
			return Event{}, fmt.Errorf("mouse button %d out of range", ev.Button)
		}
	case KeyDown, KeyUp:
		if ev.Key < 0 || ev.Key > 511 {
			return Event{}, fmt.Errorf("key code %d out of range", ev.Key)
		}
	case Char:
		if ev.Text == "" {
			return Event{}, errors.New("char event without text")
		}
	case Resize:
		if ev.Width <= 0 || ev.Height <= 0 {
			return Event{}, fmt.Errorf("invalid resize %dx%d", ev.Width, ev.Height)
		}
	default:
		return Event{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return ev, nil
}
