package core

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/eskrenkovic/mediator-go"
	"github.com/prometheus/client_golang/prometheus"
)

var _ mediator.PipelineBehavior = (*RequestMetricsBehavior)(nil)

// RequestMetricsBehavior records duration and outcome of every mediator request.
type RequestMetricsBehavior struct {
	duration *prometheus.HistogramVec
}

func NewRequestMetricsBehavior(registerer prometheus.Registerer) (*RequestMetricsBehavior, error) {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "turn_tracker",
		Name:      "request_duration_seconds",
		Help:      "Duration of mediator requests by type and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"request", "status"})

	if err := registerer.Register(duration); err != nil {
		return nil, err
	}

	return &RequestMetricsBehavior{duration: duration}, nil
}

func (b *RequestMetricsBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	start := time.Now()

	response, err := next(ctx, request)

	status := "200"
	if err != nil {
		status = "500"
		if commandErr, ok := AsCommandError(err); ok {
			status = strconv.Itoa(commandErr.StatusCode)
		}
	}

	b.duration.
		WithLabelValues(shortRequestName(request), status).
		Observe(time.Since(start).Seconds())

	return response, err
}

// shortRequestName drops the package qualifier from the request type.
func shortRequestName(request interface{}) string {
	name := requestName(request)
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}

	return name
}
