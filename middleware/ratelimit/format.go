// utilitário pequeno para formatação consistente de valores numéricos em headers.

package ratelimit

import (
	"math"
	"strconv"
	"time"
)

func formatInt(v int) string { return strconv.Itoa(v) }

// formatUnixMillis segue o formato do X-RateLimit-Reset: epoch em milissegundos.
func formatUnixMillis(t time.Time) string { return strconv.FormatInt(t.UnixMilli(), 10) }

// retryAfterSeconds arredonda para cima: Retry-After=0 faria o cliente
// tentar de novo antes da janela virar.
func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
