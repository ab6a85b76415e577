package repositories

const messagePreviewLen = 32

const noMessagesPreview = "No messages yet"

func toMessagePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= messagePreviewLen {
		return content
	}
	return string(runes[:messagePreviewLen]) + "..."
}
