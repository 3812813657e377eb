package launcher

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/gridworks/sheetkernel/internal/logging"
	"go.uber.org/zap"
)

// debugPrefix marks child output lines that are logged at debug level and
// never considered for URL matching.
const debugPrefix = "DEBUG"

// noURLSentinel is pushed when the child ends without producing a URL.
const noURLSentinel = ""

// urlPattern matches the token URL the notebook server prints once it is
// serving, e.g. http://localhost:8888/?token=abc123.
var urlPattern = regexp.MustCompile(`(?i)(https?://([a-z0-9]+\.?)+(:[0-9]+)?/?\?token=[a-f0-9]+)`)

// watchOutput reads the child's merged output one line at a time until the
// stream ends. The first line matching the URL pattern is pushed onto
// results; later lines are only logged. If the stream ends with no match
// and the termination was not intentional (wasKilled), the no-URL sentinel
// is pushed instead. At most one item is ever placed on results, so a
// launcher blocked on it always wakes with a URL, a sentinel, or its own
// timeout.
//
// The watcher owns the reader exclusively and never touches the process.
func watchOutput(r io.Reader, results chan<- string, wasKilled func() bool, log *logging.Logger) {
	scanner := bufio.NewScanner(r)
	matched := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, debugPrefix) {
			log.Debug(line)
			continue
		}
		log.Info(line)

		if matched {
			continue
		}
		if m := urlPattern.FindStringSubmatch(line); m != nil {
			matched = true
			log.Info("found notebook server URL", zap.String("url", m[1]))
			results <- m[1]
		}
	}

	// A PTY read error after the child exits is a normal end-of-stream.
	if err := scanner.Err(); err != nil {
		log.Debug("child output stream closed", zap.Error(err))
	}

	if !matched && !wasKilled() {
		log.Error("notebook server process ended without printing a URL")
		results <- noURLSentinel
	}
}
