package logging

import (
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/chatarchive/internal/config"
)

// sampledLevels are the levels subject to sampling, lowest first.
var sampledLevels = []zapcore.Level{TraceLevel, zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel}

// newSampledCore wraps core with per-level sampling. Each level below Error
// gets its own sampler from cfg.Levels, falling back to the Info rate; a
// level with Initial <= 0 is passed through unsampled. Error and above are
// never sampled.
func newSampledCore(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}

	cores := []zapcore.Core{
		&levelRangeCore{Core: core, min: zapcore.ErrorLevel, max: zapcore.FatalLevel},
	}

	fallback := cfg.Levels[zapcore.InfoLevel]
	for _, lvl := range sampledLevels {
		single := &levelRangeCore{Core: core, min: lvl, max: lvl}

		rate, ok := cfg.Levels[lvl]
		if !ok {
			rate = fallback
		}
		if rate.Initial <= 0 {
			cores = append(cores, single)
			continue
		}
		if lvl == TraceLevel {
			cores = append(cores, newTraceSampler(single, cfg.Tick, rate))
			continue
		}
		cores = append(cores, zapcore.NewSamplerWithOptions(single, cfg.Tick.Duration(), rate.Initial, rate.Thereafter))
	}

	return zapcore.NewTee(cores...)
}

// newTraceSampler samples Trace entries. zap's sampler only counts Debug
// through Fatal, so entries cross it relabelled as Debug and are restored to
// Trace before reaching core.
func newTraceSampler(core zapcore.Core, tick config.Duration, rate LevelSamplingConfig) zapcore.Core {
	restore := &relevelCore{Core: core, from: zapcore.DebugLevel, to: TraceLevel}
	sampler := zapcore.NewSamplerWithOptions(restore, tick.Duration(), rate.Initial, rate.Thereafter)
	return &relevelCore{Core: sampler, from: TraceLevel, to: zapcore.DebugLevel}
}

// relevelCore accepts only entries at from and hands them to Core as to.
type relevelCore struct {
	zapcore.Core
	from, to zapcore.Level
}

func (c *relevelCore) Enabled(lvl zapcore.Level) bool {
	return lvl == c.from && c.Core.Enabled(c.to)
}

func (c *relevelCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	e.Level = c.to
	return c.Core.Check(e, ce)
}

func (c *relevelCore) With(fields []zapcore.Field) zapcore.Core {
	return &relevelCore{Core: c.Core.With(fields), from: c.from, to: c.to}
}

// levelRangeCore passes only entries with min <= level <= max.
type levelRangeCore struct {
	zapcore.Core
	min, max zapcore.Level
}

func (c *levelRangeCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && lvl <= c.max && c.Core.Enabled(lvl)
}

func (c *levelRangeCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

// With creates a child core that preserves the level range.
func (c *levelRangeCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelRangeCore{
		Core: c.Core.With(fields),
		min:  c.min,
		max:  c.max,
	}
}
