package notify

// Notifier receives the run summary once a pipeline run ends, success
// or failure. Implementations must not block the pipeline on delivery
// errors; a failed notification is logged by the caller and dropped.
type Notifier interface {
	Notify(message string) error
}
