package workflow

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/temporal"

	"github.com/edvin/rollout/internal/clients"
	"github.com/edvin/rollout/internal/model"
)

// ErrorTypingInterceptor is a Temporal worker interceptor that gives every
// activity error a type. Domain errors carry their model error type and are
// not retried, 4xx responses from downstream services are not retried either,
// and anything else is typed with the activity name so it stands out in the
// Temporal UI.
type ErrorTypingInterceptor struct {
	interceptor.WorkerInterceptorBase
}

func (e *ErrorTypingInterceptor) InterceptActivity(
	ctx context.Context,
	next interceptor.ActivityInboundInterceptor,
) interceptor.ActivityInboundInterceptor {
	return &errorTypingActivityInterceptor{
		ActivityInboundInterceptorBase: interceptor.ActivityInboundInterceptorBase{},
		next:                           next,
	}
}

type errorTypingActivityInterceptor struct {
	interceptor.ActivityInboundInterceptorBase
	next interceptor.ActivityInboundInterceptor
}

func (e *errorTypingActivityInterceptor) Init(outbound interceptor.ActivityOutboundInterceptor) error {
	return e.next.Init(outbound)
}

func (e *errorTypingActivityInterceptor) ExecuteActivity(
	ctx context.Context,
	in *interceptor.ExecuteActivityInput,
) (interface{}, error) {
	result, err := e.next.ExecuteActivity(ctx, in)
	if err != nil {
		return result, typeActivityError(activity.GetInfo(ctx).ActivityType.Name, err)
	}
	return result, nil
}

// ClientErrorType is the application error type of a rejected downstream request.
const ClientErrorType = "CLIENT_ERROR"

func typeActivityError(activityName string, err error) error {
	// Don't double-wrap errors that already have a type.
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Type() != "" {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if t := model.ErrorType(err); t != "" {
		return temporal.NewNonRetryableApplicationError(err.Error(), t, err)
	}
	if clients.IsClientError(err) {
		return temporal.NewNonRetryableApplicationError(err.Error(), ClientErrorType, err)
	}
	return temporal.NewApplicationError(err.Error(), activityName, err)
}
