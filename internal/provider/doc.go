// Package provider normalizes raw chat exports into canonical conversations.
//
// Two schemas are supported:
//   - KindClaude ("linear"): records carry chat_messages already stored in
//     chronological order, optionally linked to projects by project_uuid.
//   - KindChatGPT ("tree"): records carry a mapping of id -> node where each
//     node points at its parent; the active branch is recovered by walking
//     parent pointers from current_node and reversing the result.
//
// Normalization never fails. Records that cannot be decoded are skipped and
// reported through NormalizeWithErrors; an unrecognized top-level shape yields
// no conversations at all.
//
// # Usage
//
//	kind, err := provider.Detect(data)
//	if err != nil {
//	    return err
//	}
//	p, err := provider.New(kind)
//	if err != nil {
//	    return err
//	}
//	convs := p.Normalize(data)
package provider
