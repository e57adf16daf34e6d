package beats

// Subset of the lumberjack sync client
type eventSink interface {
	Send(data []interface{}) (int, error)
	Close() error
}

type OutModule struct {
	sink eventSink
}
