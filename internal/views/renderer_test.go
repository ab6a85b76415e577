package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatrooms-service/internal/models"
)

type messageData struct {
	Message models.MessageView
	Self    bool
}

func testView() models.MessageView {
	return models.MessageView{
		ID:             42,
		ChatID:         7,
		Content:        "hello there",
		CreatedAt:      time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
		CreatedAtLabel: "5 minutes ago",
		Sender:         models.Sender{ID: 2, Username: "bob"},
	}
}

func TestRenderSenderVariant(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	html, err := renderer.Render("message", messageData{Message: testView(), Self: true})
	require.NoError(t, err)

	out := string(html)
	require.Contains(t, out, "message--own")
	require.Contains(t, out, ">You<")
	require.NotContains(t, out, "Mark unread")
	require.Contains(t, out, `data-message-id="42"`)
	require.Contains(t, out, "5 minutes ago")
}

func TestRenderReceiverVariant(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	html, err := renderer.Render("message", messageData{Message: testView(), Self: false})
	require.NoError(t, err)

	out := string(html)
	require.NotContains(t, out, "message--own")
	require.Contains(t, out, "bob")
	require.Contains(t, out, "Mark unread")
}

func TestRenderEscapesContent(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	view := testView()
	view.Content = `<script>alert("x")</script>`
	html, err := renderer.Render("message", messageData{Message: view})
	require.NoError(t, err)
	require.NotContains(t, string(html), "<script>")
}

func TestRenderUnknownTemplate(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	_, err = renderer.Render("nope", nil)
	require.Error(t, err)
}
