// Package embeddings generates text embeddings for zero-shot conversation
// tagging.
//
// Two backends are supported: FastEmbed runs a local ONNX model (cgo builds
// only) and TEI calls a Text-Embeddings-Inference HTTP endpoint. NewProvider
// selects one at runtime and reports the model dimension.
package embeddings
