package chart

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestRender(t *testing.T) {
	c, err := NewRenderer().Render(analysis.ChartSeries{
		Title:      "Group distribution (%)",
		Categories: []string{"male", "female"},
		Values:     []float64{60, 40},
	})
	require.NoError(t, err)

	png := c.PNG()
	assert.True(t, bytes.HasPrefix(png, pngMagic))

	c.Close()
	assert.Nil(t, c.PNG())
}

func TestRenderSingleCategory(t *testing.T) {
	c, err := NewRenderer().Render(analysis.ChartSeries{Categories: []string{"all"}, Values: []float64{100}})
	require.NoError(t, err)
	assert.NotEmpty(t, c.PNG())
}

func TestRenderEmpty(t *testing.T) {
	_, err := NewRenderer().Render(analysis.ChartSeries{})
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestRenderMismatch(t *testing.T) {
	_, err := NewRenderer().Render(analysis.ChartSeries{Categories: []string{"a"}, Values: nil})
	assert.Error(t, err)
}
