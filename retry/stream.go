package retry

import (
	"context"
	"fmt"
	"sync"
	"time"

	connectretry "github.com/grpc-guardian/connect-retry"
	"github.com/grpc-guardian/connect-retry/pkg/oracle"
	"github.com/grpc-guardian/connect-retry/pkg/rewind"
	"github.com/grpc-guardian/connect-retry/pkg/telemetry"
)

// StreamInterceptorName is the interceptor value attached to every
// structured event the streaming engine emits.
const StreamInterceptorName = "StreamRetryInterceptor"

// NewStreamInterceptor builds the streaming retry interceptor. It
// retries bidirectional-streaming and server-streaming calls; other
// method kinds pass through untouched. Retries stop for good the
// moment the response iterable yields its first element.
func NewStreamInterceptor(
	defaults Config,
	gate oracle.FeatureGate,
	dynamicConfig oracle.DynamicConfigProvider,
	log telemetry.DebugLog,
	events telemetry.EventSink,
) connectretry.StreamInterceptor {
	if dynamicConfig == nil {
		dynamicConfig = oracle.DefaultDynamicConfigProvider()
	}
	if log == nil {
		log = telemetry.NoopDebugLog{}
	}
	if events == nil {
		events = telemetry.NoopEventSink{}
	}

	return func(next connectretry.StreamFunc) connectretry.StreamFunc {
		return func(ctx context.Context, req *connectretry.StreamRequest) (*connectretry.StreamResponse, error) {
			kind := req.Spec.Kind
			if kind != connectretry.MethodKindBidiStream && kind != connectretry.MethodKindServerStream {
				return next(ctx, req)
			}

			cfg := ResolveConfig(ctx, defaults, req.Header, gate)
			if !cfg.Enabled {
				return next(ctx, req)
			}

			method := req.Spec.Method

			var rewindable *rewind.Rewindable[any]
			if kind == connectretry.MethodKindBidiStream {
				rewindable = rewind.New[any](messageSourceAsRewindSource{req.Message})
			}

			attempt := 0
			for {
				attemptReq := *req
				if rewindable != nil {
					reader, err := rewindable.NewReader()
					if err != nil {
						// AlreadyFinished here is a programming error: the
						// loop only re-enters after deciding to retry.
						return nil, err
					}
					attemptReq.Message = rewindReaderAsMessageSource{reader}
				}

				resp, err := next(ctx, &attemptReq)
				if err != nil {
					dc := dynamicConfig.DynamicConfig(ctx)
					retryable := ShouldRetryOnError(err, method, dc)
					if !retryable || attempt >= cfg.MaxRetries {
						if rewindable != nil {
							rewindable.OnRetryFinished()
						}
						if !retryable {
							return nil, err
						}
						log.Warn(fmt.Sprintf("Max retries (%d) exhausted", cfg.MaxRetries))
						code := connectretry.CodeUnknown
						if te, ok := connectretry.AsTransportError(err); ok {
							code = te.Code
						}
						events.Emit(ctx, "transport", "Retry exhausted",
							telemetry.F("interceptor", StreamInterceptorName),
							telemetry.F("method", method),
							telemetry.F("errorCode", code.String()),
						)
						return nil, err
					}

					delay := CalculateBackoffDelay(attempt, cfg.BaseDelayMs, cfg.MaxDelayMs)
					log.Info(fmt.Sprintf("About to retry %s", method))
					events.Emit(ctx, "transport", "Retry attempt",
						telemetry.F("interceptor", StreamInterceptorName),
						telemetry.F("method", method),
						telemetry.F("attempt", attempt),
						telemetry.F("delayMs", delay.Milliseconds()),
					)

					timer := time.NewTimer(delay)
					select {
					case <-timer.C:
					case <-ctx.Done():
						timer.Stop()
						if rewindable != nil {
							rewindable.OnRetryFinished()
						}
						return nil, ctx.Err()
					}
					attempt++
					continue
				}

				finishedAttempt := attempt
				wrapped := &succeedOnFirstYield{
					src:        resp.Messages,
					onFirst:    sync.OnceFunc(func() { onFirstResponseYield(ctx, rewindable, log, events, method, finishedAttempt) }),
				}
				return &connectretry.StreamResponse{Header: resp.Header, Messages: wrapped}, nil
			}
		}
	}
}

func onFirstResponseYield(
	ctx context.Context,
	rewindable *rewind.Rewindable[any],
	log telemetry.DebugLog,
	events telemetry.EventSink,
	method string,
	attempt int,
) {
	if rewindable != nil {
		rewindable.OnRetryFinished()
	}
	if attempt > 0 {
		log.Info(fmt.Sprintf("Successfully completed after %d retries (%d total requests made)", attempt, attempt+1))
		events.Emit(ctx, "transport", "Retry succeeded",
			telemetry.F("interceptor", StreamInterceptorName),
			telemetry.F("method", method),
			telemetry.F("retryAttemptNumber", attempt),
		)
	}
}

// succeedOnFirstYield wraps a response MessageSource so that the first
// successful (non-error, non-done) yield fires onFirst exactly once,
// before handing the value to the caller. Any error raised after that
// point propagates unchanged: no retry is possible once a response
// byte has reached the caller.
type succeedOnFirstYield struct {
	src     connectretry.MessageSource
	onFirst func()
}

func (s *succeedOnFirstYield) Next(ctx context.Context) (any, bool, error) {
	msg, done, err := s.src.Next(ctx)
	if err == nil && !done {
		s.onFirst()
	}
	return msg, done, err
}

// messageSourceAsRewindSource adapts a connectretry.MessageSource to
// rewind.Source[any].
type messageSourceAsRewindSource struct {
	src connectretry.MessageSource
}

func (a messageSourceAsRewindSource) Next(ctx context.Context) (any, bool, error) {
	return a.src.Next(ctx)
}

// rewindReaderAsMessageSource adapts a *rewind.Reader[any] back to
// connectretry.MessageSource for handing down to the transport.
type rewindReaderAsMessageSource struct {
	reader *rewind.Reader[any]
}

func (r rewindReaderAsMessageSource) Next(ctx context.Context) (any, bool, error) {
	return r.reader.Next(ctx)
}
