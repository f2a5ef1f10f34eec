// Package logging provides structured logging for chatarchive.
//
// Logger wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Automatic context fields (trace_id, export.batch, export.provider,
//     conversation.id)
//   - Secret redaction by field name and value pattern
//   - Per-level sampling (errors never sampled)
//
// # Usage
//
//	cfg, err := logging.FromSettings(appCfg.Logging)
//	if err != nil {
//	    return err
//	}
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithProvider(ctx, "claude")
//	ctx = logging.WithConversationID(ctx, conv.UUID)
//	logger.Warn(ctx, "tagging failed", zap.Error(err))
//
// Entries go to stderr by default so command output on stdout stays
// machine-readable.
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	pipeline := export.NewPipeline(p, tr, org, w, tagger, tl.Logger)
//	...
//	tl.AssertLogged(t, zapcore.WarnLevel, "tagging failed")
//	tl.AssertField(t, "tagging failed", "conversation.id", "abc")
package logging
