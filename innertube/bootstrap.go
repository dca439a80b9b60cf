package innertube

import (
	"errors"
	"regexp"
	"sync"
)

// Bootstrap errors. All are fatal to the start attempt that produced
// them; the session never enters polling after one of these.
var (
	ErrStreamFinished       = errors.New("innertube: stream is finished or a replay")
	ErrMissingLiveID        = errors.New("innertube: canonical live id not found in page")
	ErrMissingAPIKey        = errors.New("innertube: api key not found in page")
	ErrMissingClientVersion = errors.New("innertube: client version not found in page")
	ErrMissingContinuation  = errors.New("innertube: continuation token not found in page")
)

// Bootstrap holds everything extracted from the watch page: the
// immutable page context plus the initial continuation token the
// polling loop starts from.
type Bootstrap struct {
	Page         PageContext
	Continuation string
}

var watchPagePatterns = sync.OnceValue(func() *struct {
	liveID, apiKey, clientVersion, continuation, replay *regexp.Regexp
} {
	return &struct {
		liveID, apiKey, clientVersion, continuation, replay *regexp.Regexp
	}{
		liveID:        regexp.MustCompile(`<link rel="canonical" href="https://www\.youtube\.com/watch\?v=([^"]+)">`),
		apiKey:        regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([^"]+)"`),
		clientVersion: regexp.MustCompile(`"clientVersion":\s*"([^"]+)"`),
		continuation:  regexp.MustCompile(`"continuation":\s*"([^"]+)"`),
		replay:        regexp.MustCompile(`"isReplay":\s*true`),
	}
})

// ExtractBootstrap pulls the live id, api key, client version, and
// initial continuation token out of a watch page. A finished or replay
// stream fails fast, as does any missing token.
func ExtractBootstrap(html string) (*Bootstrap, error) {
	p := watchPagePatterns()

	liveID := p.liveID.FindStringSubmatch(html)
	if liveID == nil {
		return nil, ErrMissingLiveID
	}
	if p.replay.MatchString(html) {
		return nil, ErrStreamFinished
	}
	apiKey := p.apiKey.FindStringSubmatch(html)
	if apiKey == nil {
		return nil, ErrMissingAPIKey
	}
	clientVersion := p.clientVersion.FindStringSubmatch(html)
	if clientVersion == nil {
		return nil, ErrMissingClientVersion
	}
	continuation := p.continuation.FindStringSubmatch(html)
	if continuation == nil {
		return nil, ErrMissingContinuation
	}
	return &Bootstrap{
		Page: PageContext{
			LiveID:        liveID[1],
			APIKey:        apiKey[1],
			ClientVersion: clientVersion[1],
		},
		Continuation: continuation[1],
	}, nil
}
