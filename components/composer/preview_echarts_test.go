package composer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewRendererDualAxisChart(t *testing.T) {
	renderer := NewPreviewRenderer(WithPreviewCache(nil))
	tree := DualAxisTransform(DefaultDualAxisConfig())(dualAxisTree(), RenderEnv{Theme: ThemeDark})
	tree.Section("title")["text"] = "LTD trial spend"
	tree.Section("plotOptions")["column"].(map[string]any)["stacking"] = "normal"

	html, err := renderer.Render(tree, ThemeDark)
	require.NoError(t, err)
	assert.Contains(t, html, "LTD trial spend")
	assert.Contains(t, html, "Patient count")
	assert.Contains(t, html, `"yAxisIndex":1`)
	assert.Contains(t, html, `"stack":"primary"`)
	assert.Contains(t, html, "chalk")
}

func TestPreviewRendererRequiresSeries(t *testing.T) {
	_, err := NewPreviewRenderer().Render(ChartOptions{}, ThemeLight)
	assert.Error(t, err)
}

func TestPreviewRendererCachesByContent(t *testing.T) {
	cache := NewMemoryPreviewCache(time.Minute)
	renderer := NewPreviewRenderer(WithPreviewCache(cache), WithPreviewHeight("300px"))

	_, err := renderer.Render(dualAxisTree(), ThemeLight)
	require.NoError(t, err)
	_, err = renderer.Render(dualAxisTree(), ThemeLight)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	_, err = renderer.Render(dualAxisTree(), ThemeDark)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
}

func TestPreviewRendererAppliesPlan(t *testing.T) {
	renderer := NewPreviewRenderer(WithPreviewCache(nil))
	plan := RenderPlan{
		Theme:        ThemeLight,
		Title:        "Styled spend",
		BeforeRender: StyledBeforeRender(DefaultStyleConfig()),
	}
	html, err := renderer.RenderPlan(plan, dualAxisTree())
	require.NoError(t, err)
	assert.Contains(t, html, "Styled spend")
	assert.Contains(t, html, "westeros")
}
