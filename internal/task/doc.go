// Package task manages background job claiming, processing, and lifecycle.
// It provides the dispatcher that atomically claims batches of pending jobs
// from the persisted queue and runs them through registered pipeline stages,
// ensuring long-running document processing doesn't block HTTP request
// handling and can recover from application restarts.
package task
