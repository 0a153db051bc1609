package firebase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/leofalp/fireai/internal/utils"
	"github.com/leofalp/fireai/providers/ai"
	"github.com/leofalp/fireai/providers/observability"
)

func (c *Client) stream(ctx context.Context, url RequestURL, body []byte) (*ai.GenerateContentStream, error) {
	res, err := makeRequest(ctx, c.client, url, body)
	if err != nil {
		recordHTTPFailure(ctx, err)
		return nil, err
	}

	log := newFrameLog()
	go readFrames(ctx, res, c.settings.Backend, log)

	return ai.NewGenerateContentStream(log.iter, log.response), nil
}

// readFrames decodes every frame of res into log and closes the body. It
// runs to the end of the stream whether or not anyone is reading.
func readFrames(ctx context.Context, res *http.Response, backend ai.Backend, log *frameLog) {
	defer utils.CloseWithLog(res.Body)
	span := observability.SpanFromContext(ctx)

	scanner := utils.NewFrameScanner(res.Body)
	for {
		payload, err := scanner.Next()
		switch {
		case errors.Is(err, io.EOF):
			if span != nil {
				span.AddEvent(observability.EventStreamDone, observability.Int(observability.AttrStreamFrames, log.len()))
			}
			log.finish(nil)
			return
		case errors.Is(err, utils.ErrIncompleteFrame):
			log.finish(ai.WrapError(ai.ErrorCodeParseFailed, "Failed to parse stream", err))
			return
		case err != nil:
			log.finish(ai.WrapError(ai.ErrorCodeError, "Error reading stream: "+err.Error(), err))
			return
		}

		response, err := decodeResponse(backend, []byte(payload))
		if err != nil {
			if ai.IsCode(err, ai.ErrorCodeParseFailed) {
				err = ai.WrapError(ai.ErrorCodeParseFailed, "Error parsing JSON response: "+utils.TruncateString(payload, 0), err)
			}
			log.finish(err)
			return
		}
		if span != nil {
			span.AddEvent(observability.EventStreamFrame, observability.Int(observability.AttrCandidateCount, len(response.Candidates)))
		}
		log.append(response)
	}
}

// frameLog is the append-only record of decoded frames shared by the live
// iterator and the aggregator. changed is closed and replaced on every
// update so any number of readers can wait for progress.
type frameLog struct {
	mu      sync.Mutex
	frames  []*ai.GenerateContentResponse
	err     error
	done    bool
	changed chan struct{}
}

func newFrameLog() *frameLog {
	return &frameLog{changed: make(chan struct{})}
}

func (l *frameLog) append(frame *ai.GenerateContentResponse) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = append(l.frames, frame)
	close(l.changed)
	l.changed = make(chan struct{})
}

func (l *frameLog) finish(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
	l.done = true
	close(l.changed)
	l.changed = make(chan struct{})
}

func (l *frameLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames)
}

// at returns frame i if it exists. When it does not, it reports whether the
// log is finished and otherwise hands back the channel to wait on.
func (l *frameLog) at(i int) (frame *ai.GenerateContentResponse, ok, done bool, err error, wait <-chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < len(l.frames) {
		return l.frames[i], true, false, nil, nil
	}
	return nil, false, l.done, l.err, l.changed
}

// iter yields the frames that carry something a caller can use, then the
// terminating error, if any.
func (l *frameLog) iter(yield func(*ai.EnhancedResponse, error) bool) {
	for i := 0; ; {
		frame, ok, done, err, wait := l.at(i)
		if ok {
			i++
			if !hasUsefulData(frame) {
				continue
			}
			if !yield(ai.NewEnhancedResponse(frame), nil) {
				return
			}
			continue
		}
		if done {
			if err != nil {
				yield(nil, err)
			}
			return
		}
		<-wait
	}
}

// response waits for the stream to finish and aggregates every frame.
func (l *frameLog) response(ctx context.Context) (*ai.EnhancedResponse, error) {
	for {
		l.mu.Lock()
		done, err, wait := l.done, l.err, l.changed
		frames := l.frames
		l.mu.Unlock()

		if done {
			if err != nil {
				return nil, err
			}
			return ai.NewEnhancedResponse(ai.Aggregate(frames)), nil
		}

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// hasUsefulData reports whether the first candidate of frame has a parts
// list (possibly empty), a finish reason, citations or URL context metadata.
func hasUsefulData(frame *ai.GenerateContentResponse) bool {
	if len(frame.Candidates) == 0 {
		return false
	}
	candidate := frame.Candidates[0]
	return (candidate.Content != nil && candidate.Content.Parts != nil) ||
		candidate.FinishReason != "" ||
		candidate.CitationMetadata != nil ||
		candidate.URLContextMetadata != nil
}
