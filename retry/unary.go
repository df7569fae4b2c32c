package retry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	connectretry "github.com/grpc-guardian/connect-retry"
	"github.com/grpc-guardian/connect-retry/pkg/oracle"
	"github.com/grpc-guardian/connect-retry/pkg/telemetry"
)

// UnaryInterceptorName is the interceptor value attached to every
// structured event the unary engine emits.
const UnaryInterceptorName = "UnaryRetryInterceptor"

// NewUnaryInterceptor builds the unary retry interceptor. defaults
// seeds the per-call Config before header and killswitch overrides are
// applied; gate, dynamicConfig, log and events may be nil, in which
// case the interceptor never kills a call and reports to nowhere.
func NewUnaryInterceptor(
	defaults Config,
	gate oracle.FeatureGate,
	dynamicConfig oracle.DynamicConfigProvider,
	log telemetry.DebugLog,
	events telemetry.EventSink,
	opts ...Option,
) connectretry.UnaryInterceptor {
	if dynamicConfig == nil {
		dynamicConfig = oracle.DefaultDynamicConfigProvider()
	}
	if log == nil {
		log = telemetry.NoopDebugLog{}
	}
	if events == nil {
		events = telemetry.NoopEventSink{}
	}
	engineOpts := resolveOptions(opts)

	return func(next connectretry.UnaryFunc) connectretry.UnaryFunc {
		return func(ctx context.Context, req *connectretry.UnaryRequest) (*connectretry.UnaryResponse, error) {
			if req.Spec.Kind != connectretry.MethodKindUnary {
				return next(ctx, req)
			}

			cfg := ResolveConfig(ctx, defaults, req.Header, gate)
			if !cfg.Enabled {
				return next(ctx, req)
			}

			method := req.Spec.Method
			attempt := 0
			for {
				if attempt > 0 && engineOpts.AttemptHeader {
					stampAttempt(req.Header, attempt)
				}

				resp, err := next(ctx, req)
				if err == nil {
					if attempt > 0 {
						log.Info(fmt.Sprintf("Successfully completed after %d retries (%d total requests made)", attempt, attempt+1))
						events.Emit(ctx, "transport", "Retry succeeded",
							telemetry.F("interceptor", UnaryInterceptorName),
							telemetry.F("method", method),
							telemetry.F("retryAttemptNumber", attempt),
						)
					}
					return resp, nil
				}

				dc := dynamicConfig.DynamicConfig(ctx)
				if !ShouldRetryOnError(err, method, dc) {
					return nil, err
				}

				if attempt >= cfg.MaxRetries {
					log.Warn(fmt.Sprintf("Max retries (%d) exhausted", cfg.MaxRetries))
					code := connectretry.CodeUnknown
					if te, ok := connectretry.AsTransportError(err); ok {
						code = te.Code
					}
					events.Emit(ctx, "transport", "Retry exhausted",
						telemetry.F("interceptor", UnaryInterceptorName),
						telemetry.F("method", method),
						telemetry.F("errorCode", code.String()),
					)
					return nil, err
				}

				delay := CalculateBackoffDelay(attempt, cfg.BaseDelayMs, cfg.MaxDelayMs)
				log.Info(fmt.Sprintf("About to retry %s", method))
				events.Emit(ctx, "transport", "Retry attempt",
					telemetry.F("interceptor", UnaryInterceptorName),
					telemetry.F("method", method),
					telemetry.F("attempt", attempt),
					telemetry.F("delayMs", delay.Milliseconds()),
				)

				timer := time.NewTimer(delay)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return nil, ctx.Err()
				}
				attempt++
			}
		}
	}
}

func stampAttempt(header connectretry.Header, attempt int) {
	if header == nil {
		return
	}
	header.Set(HeaderAttempt, strconv.Itoa(attempt))
}
