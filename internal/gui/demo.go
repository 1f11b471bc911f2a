package gui

import (
	"fmt"
	"time"

	"github.com/inkyblackness/imgui-go/v4"
)

const historyLen = 120

// Stats is what the render loop reports to the demo window each frame.
type Stats struct {
	TargetFPS float64
	Delta     time.Duration
	Clients   int
	FrameID   uint64
	Uptime    time.Duration
}

// Demo is the window drawn every tick.
type Demo struct {
	ShowDemoWindow bool

	value   float32
	enabled bool
	color   [3]float32
	clicks  int
	history []float32
}

func NewDemo() *Demo {
	return &Demo{enabled: true, value: 0.5, color: [3]float32{0.4, 0.7, 0.0}}
}

func (d *Demo) record(ms float32) {
	if len(d.history) >= historyLen {
		copy(d.history, d.history[1:])
		d.history = d.history[:historyLen-1]
	}
	d.history = append(d.history, ms)
}

// Build issues the widgets; call it from inside Context.Frame.
func (d *Demo) Build(s Stats) {
	ms := float32(s.Delta.Microseconds()) / 1000
	d.record(ms)

	imgui.SetNextWindowPosV(imgui.Vec2{X: 20, Y: 20}, imgui.ConditionFirstUseEver, imgui.Vec2{})
	imgui.SetNextWindowSizeV(imgui.Vec2{X: 400, Y: 280}, imgui.ConditionFirstUseEver)
	imgui.Begin("imgui-ws")
	imgui.Text(fmt.Sprintf("target %.0f fps, frame %.2f ms", s.TargetFPS, ms))
	imgui.Text(fmt.Sprintf("frame #%d, clients %d, up %s", s.FrameID, s.Clients, s.Uptime.Truncate(time.Second)))
	imgui.PlotLines("frame ms", d.history)
	imgui.Separator()
	imgui.SliderFloat("value", &d.value, 0, 1)
	imgui.Checkbox("enabled", &d.enabled)
	imgui.ColorEdit3("color", &d.color)
	if imgui.Button("click me") {
		d.clicks++
	}
	imgui.SameLine()
	imgui.Text(fmt.Sprintf("clicked %d times", d.clicks))
	imgui.Checkbox("show demo window", &d.ShowDemoWindow)
	imgui.End()

	if d.ShowDemoWindow {
		imgui.ShowDemoWindow(&d.ShowDemoWindow)
	}
}
