package launcher

import (
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// probe checks that the reported URL actually answers. Diagnostic only: a
// server that printed its URL but isn't reachable yet is logged, not
// failed, since the browser will retry anyway.
func (l *Launcher) probe(url string) {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 250 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.HTTPClient.Timeout = 2 * time.Second
	client.Logger = nil

	resp, err := client.Get(url)
	if err != nil {
		l.log.Warn("notebook server URL not reachable yet", zap.String("url", url), zap.Error(err))
		return
	}
	resp.Body.Close()
	l.log.Debug("notebook server responded", zap.Int("status", resp.StatusCode))
}
