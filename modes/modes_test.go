package modes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByName(t *testing.T) {
	s, ok := ByName("Robot 36")
	assert.True(t, ok)
	assert.Equal(t, 320, s.WidthPx)
	assert.Equal(t, 240, s.HeightPx)

	_, ok = ByName("Not A Mode")
	assert.False(t, ok)
}

func TestAllSixModes(t *testing.T) {
	all := All()
	assert.Len(t, all, 6)
}

func TestYUVToRGBBlackAndWhite(t *testing.T) {
	r, g, b := YUVToRGB(16, 128, 128)
	assert.Equal(t, uint8(0), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(0), b)

	r, g, b = YUVToRGB(235, 128, 128)
	assert.InDelta(t, 255, int(r), 2)
	assert.InDelta(t, 255, int(g), 2)
	assert.InDelta(t, 255, int(b), 2)
}

func TestYUVToRGBClamps(t *testing.T) {
	r, g, b := YUVToRGB(255, 255, 0)
	assert.LessOrEqual(t, r, uint8(255))
	assert.LessOrEqual(t, g, uint8(255))
	assert.LessOrEqual(t, b, uint8(255))
}
