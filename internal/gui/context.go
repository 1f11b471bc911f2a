// Package gui owns the Dear ImGui context and turns each rendered frame into
// a frame.Frame that can be streamed to browser clients.
package gui

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/inkyblackness/imgui-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-imguiws/internal/frame"
)

// FontTextureID is the texture id the font atlas is registered under.
const FontTextureID = 1

const defaultDelta = float32(1.0 / 60.0)

// Context wraps the process' single imgui context. Not safe for concurrent use.
type Context struct {
	ctx    *imgui.Context
	io     imgui.IO
	font   frame.FontTexture
	layout frame.VertexLayout

	width, height float32
	frameID       uint64
}

// NewContext creates the imgui context, applies theme and builds the font atlas.
func NewContext(theme string, width, height int) (*Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid display size %dx%d", width, height)
	}
	ctx := imgui.CreateContext(nil)
	if err := ApplyTheme(theme); err != nil {
		ctx.Destroy()
		return nil, err
	}

	io := imgui.CurrentIO()
	io.SetIniFilename("")
	io.SetDisplaySize(imgui.Vec2{X: float32(width), Y: float32(height)})
	mapKeys(io)

	img := io.Fonts().TextureDataRGBA32()
	pixels := make([]byte, img.Width*img.Height*4)
	copy(pixels, unsafe.Slice((*byte)(img.Pixels), len(pixels)))
	io.Fonts().SetTextureID(imgui.TextureID(FontTextureID))

	stride, pos, uv, col := imgui.VertexBufferLayout()
	c := &Context{
		ctx: ctx,
		io:  io,
		font: frame.FontTexture{
			ID:     FontTextureID,
			Width:  img.Width,
			Height: img.Height,
			Pixels: pixels,
		},
		layout: frame.VertexLayout{
			Stride:    stride,
			PosOffset: pos,
			UVOffset:  uv,
			ColOffset: col,
			IndexSize: imgui.IndexBufferLayout(),
		},
		width:  float32(width),
		height: float32(height),
	}
	log.Info().Str("imgui", imgui.Version()).Str("theme", theme).Int("font_w", img.Width).Int("font_h", img.Height).Msg("gui context created")
	return c, nil
}

// ApplyTheme selects one of the built-in color styles.
func ApplyTheme(theme string) error {
	switch theme {
	case "", "dark":
		imgui.StyleColorsDark()
	case "light":
		imgui.StyleColorsLight()
	case "classic":
		imgui.StyleColorsClassic()
	default:
		return fmt.Errorf("unknown theme %q", theme)
	}
	return nil
}

func (c *Context) FontTexture() frame.FontTexture { return c.font }

func (c *Context) DisplaySize() (float32, float32) { return c.width, c.height }

// Frame runs one imgui frame: build is called between NewFrame and Render.
func (c *Context) Frame(dt float32, build func()) *frame.Frame {
	if dt <= 0 {
		dt = defaultDelta
	}
	c.io.SetDeltaTime(dt)
	imgui.NewFrame()
	if build != nil {
		build()
	}
	imgui.Render()

	c.frameID++
	return c.capture(imgui.RenderedDrawData())
}

func (c *Context) capture(dd imgui.DrawData) *frame.Frame {
	f := &frame.Frame{
		ID:     c.frameID,
		T:      time.Now().UnixNano(),
		Width:  c.width,
		Height: c.height,
		Layout: c.layout,
	}
	if !dd.Valid() {
		return f
	}
	for _, list := range dd.CommandLists() {
		vp, vn := list.VertexBuffer()
		ip, in := list.IndexBuffer()
		dl := frame.DrawList{
			Vertices: cloneBytes(vp, vn),
			Indices:  cloneBytes(ip, in),
		}
		for _, cmd := range list.Commands() {
			if cmd.HasUserCallback() {
				continue
			}
			r := cmd.ClipRect()
			dl.Commands = append(dl.Commands, frame.Command{
				ElemCount: cmd.ElementCount(),
				ClipRect:  [4]float32{r.X, r.Y, r.Z, r.W},
				TextureID: uint64(cmd.TextureID()),
			})
		}
		f.Lists = append(f.Lists, dl)
	}
	return f
}

func (c *Context) Close() {
	if c.ctx != nil {
		c.ctx.Destroy()
		c.ctx = nil
	}
}

func cloneBytes(p unsafe.Pointer, n int) []byte {
	if p == nil || n <= 0 {
		return nil
	}
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(p), n))
	return out
}
