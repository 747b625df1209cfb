package composer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	lastTemplate string
	lastPayload  map[string]any
	err          error
}

func (r *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.lastTemplate = name
	if payload, ok := data.(map[string]any); ok {
		r.lastPayload = payload
	}
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("<html></html>"))
	}
	return "<html></html>", r.err
}

func TestControllerRenderTemplate(t *testing.T) {
	session, _ := newTestSession(t, nil)
	require.NoError(t, session.Start(context.Background()))
	renderer := &stubRenderer{}
	controller := NewController(ControllerOptions{Workspace: session, Renderer: renderer})

	var buf bytes.Buffer
	if err := controller.RenderTemplate(context.Background(), "trial", &buf); err != nil {
		t.Fatalf("RenderTemplate returned error: %v", err)
	}
	if renderer.lastTemplate != DefaultWorkspaceTemplate {
		t.Fatalf("expected workspace template to render, got %s", renderer.lastTemplate)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected rendered output")
	}
	assert.Equal(t, "Trial overview (dark)", renderer.lastPayload["title"])
	assert.Equal(t, "dark", renderer.lastPayload["theme"])
	panel, ok := renderer.lastPayload["panel"].(Panel)
	require.True(t, ok)
	assert.Equal(t, "trial", panel.Search)
	assert.Len(t, renderer.lastPayload["widgets"], 7)
}

func TestControllerRenderErrors(t *testing.T) {
	controller := NewController(ControllerOptions{})
	assert.Error(t, controller.RenderTemplate(context.Background(), "", io.Discard))

	boom := errors.New("template missing")
	controller = NewController(ControllerOptions{Renderer: &stubRenderer{err: boom}, Template: "custom.html"})
	assert.ErrorIs(t, controller.RenderTemplate(context.Background(), "", io.Discard), boom)
}

func TestEmbeddedWorkspaceTemplate(t *testing.T) {
	session, _ := newTestSession(t, nil)
	ctx := context.Background()
	require.NoError(t, session.Start(ctx))
	_, err := session.Grid().AddEmbed(ctx, "https://example.com/report")
	require.NoError(t, err)

	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)
	controller := NewController(ControllerOptions{Workspace: session, Renderer: renderer})

	var buf bytes.Buffer
	require.NoError(t, controller.RenderTemplate(ctx, "", &buf))
	html := buf.String()
	assert.Contains(t, html, "Trial overview (dark)")
	assert.Contains(t, html, "Analytics")
	assert.Contains(t, html, `data-instance="kpi2-dark" data-renderer="surface" data-x="0" data-y="0" data-w="3" data-h="3"`)
	assert.Contains(t, html, `data-x="6" data-y="3" data-w="6" data-h="8"`)
	assert.Contains(t, html, "example.com/report")
	assert.NotContains(t, html, `data-instance=""`)
	assert.Contains(t, html, "FP&amp;A")
	assert.Contains(t, html, `<li class="active">Trial overview (dark)</li>`)
}

func TestEmbeddedWorkspaceTemplateExternalView(t *testing.T) {
	session, _ := newTestSession(t, nil)
	ctx := context.Background()
	require.NoError(t, session.Start(ctx))
	session.ShowExternal("https://analytics.example.com/app/usage", PageUsage)

	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)
	controller := NewController(ControllerOptions{Workspace: session, Renderer: renderer})

	var buf bytes.Buffer
	require.NoError(t, controller.RenderTemplate(ctx, "", &buf))
	html := buf.String()
	assert.Contains(t, html, `<iframe src="https://analytics.example.com/app/usage" title="usage"`)
	assert.NotContains(t, html, `class="widget"`)
}
