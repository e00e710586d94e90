package kafka

// Topic names
const (
	// TopicWorkflowRuns carries run lifecycle events (started, step recorded, completed, failed)
	TopicWorkflowRuns = "workflows.runs"

	// TopicReports carries persisted report notifications
	TopicReports = "workflows.reports"
)
