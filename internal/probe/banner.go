package probe

import (
	"net"
	"strings"
	"time"
	"unicode/utf8"
)

const maxBannerRunes = 50

var bannerNudge = []byte("\r\n")

// grabBanner nudges the service with a line break and returns whatever it
// sends back within timeout. Any failure yields an empty banner.
func grabBanner(conn net.Conn, timeout time.Duration) string {
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return ""
	}
	if _, err := conn.Write(bannerNudge); err != nil {
		return ""
	}

	buf := make([]byte, readBufferSize)
	n, _ := conn.Read(buf)
	if n == 0 {
		return ""
	}
	return formatBanner(buf[:n])
}

// formatBanner drops invalid UTF-8, trims whitespace and keeps the first
// maxBannerRunes characters.
func formatBanner(data []byte) string {
	s := strings.TrimSpace(strings.ToValidUTF8(string(data), ""))
	if utf8.RuneCountInString(s) <= maxBannerRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxBannerRunes])
}
