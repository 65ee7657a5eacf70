package domain

import (
	"fmt"
	"time"
)

// EphemeralNotice appends the bilingual auto-delete notice to a reply
func EphemeralNotice(text string, delay time.Duration) string {
	secs := int(delay / time.Second)
	return fmt.Sprintf("%s\n\n（此消息将于%d秒后自动删除/This message will be deleted after %d seconds.）", text, secs, secs)
}
