// Package tagging assigns topic labels to conversations with a zero-shot
// classifier.
//
// The classifier scores each configured category independently against a
// short context built from the conversation title and its first messages.
// Categories scoring above the threshold are kept, best first, up to MaxTags.
//
// Model loading is delegated to a Loader so callers control when the
// (possibly slow, possibly downloading) backend comes up:
//
//	tagger := tagging.New(cfg, tagging.NewEmbeddingLoader(logger), logger)
//	if err := tagger.Initialize(ctx, func(pct int) { bar.Set(pct) }); err != nil {
//	    return err
//	}
//	defer tagger.Close()
//
//	tags, err := tagger.TagConversation(ctx, &conv)
package tagging
