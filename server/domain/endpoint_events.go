package domain

type endpointEventKind uint8

const (
	// unknown
	unknown endpointEventKind = iota

	// I/O
	evReadError
	evWriteError

	// ctrl
	evClose
)

type endpointEvent struct {
	kind   endpointEventKind
	reason IdleReason
	err    error
}
