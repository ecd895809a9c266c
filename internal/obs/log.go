package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the shared line logger. Both the request log and the
// security diagnostic stream write here, so entries must carry category
// fields only: cookie values, CSRF tokens, session IDs and account
// identifiers never go through this writer.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest emits one JSON line per completed HTTP request. Callers pass
// canonicalized paths (see CanonicalPath) so the stream stays greppable by
// route rather than by raw URL.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"ts":"error","level":"error","msg":"log marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}
