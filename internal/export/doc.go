// Package export turns canonical conversations into a dated tree of
// Markdown files.
//
// A Pipeline runs each conversation through optional tagging, the
// MarkdownTransformer, the Organizer (which picks the output path) and a
// Writer. Tagging failures are logged and leave the conversation untagged;
// write failures stop the batch. Manager wires a Pipeline from an
// ExportContext, loading the tagging model first when tagging is enabled.
package export
