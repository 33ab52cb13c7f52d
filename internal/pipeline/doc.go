// Package pipeline contains the stages executed by the job dispatcher:
// section extraction, activity mapping, analytics aggregation, the combined
// full pipeline, and the embedding follow-up. Each stage owns the document
// updates and progress checkpoints for its phase; job rows belong to the
// dispatcher.
package pipeline
