package diagnostics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverrun(t *testing.T) {
	d := Overrun(40*time.Millisecond, 16*time.Millisecond)
	assert.Equal(t, Warn, d.Severity)
	assert.Equal(t, FrameOverrun, d.Code)
	assert.Equal(t, 40.0, d.Evidence["delta_ms"])

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"severity":"warning"`)
	assert.NotContains(t, string(b), `"detail"`)
}
