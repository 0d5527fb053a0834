package pdf

import "fmt"

// FormatSize renders a byte count the way the chat UI displays uploads:
// whole bytes below 1 KiB, one decimal of KB below 1 MiB, one decimal of MB
// above.
func FormatSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}
