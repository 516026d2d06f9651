package theaterconfig

import (
	"github.com/stagehand/theater/internal/theaterlog"
	"github.com/stagehand/theater/internal/theatertrace"
	"github.com/stagehand/theater/pkg/theater"
)

// Budget converts the scheduler section of a Config into a
// theater.Budget suitable for theater.WithBudget.
func (c SchedulerConfig) Budget() theater.Budget {
	return theater.Budget{
		Immediate: c.ImmediateBudget,
		Fast:      c.FastBudget,
		Normal:    c.NormalBudget,
	}
}

// TraceConfig converts the tracing section of a Config into a
// theatertrace.Config suitable for theatertrace.Init.
func (c TracingConfig) TraceConfig() theatertrace.Config {
	return theatertrace.Config{
		Enabled:    c.Enabled,
		Exporter:   "otlpgrpc",
		Endpoint:   c.Endpoint,
		Sampler:    c.Sampler,
		SampleRate: c.SampleRate,
	}
}

// LoggerConfig converts the log section of a Config into a
// theaterlog.Config suitable for theaterlog.New.
func (c LogConfig) LoggerConfig() *theaterlog.Config {
	return &theaterlog.Config{
		Level:  theaterlog.ParseLevel(c.Level),
		Format: c.Format,
		Output: c.Output,
	}
}
