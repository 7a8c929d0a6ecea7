package domain

import "context"

//go:generate go tool mockgen -destination=./mocks/transport_mock.go -package=mocks . Transport

// Transport is the I/O boundary a Connection depends on.
type Transport interface {
	Read(ctx context.Context) (data []byte, err error)
	Write(ctx context.Context, data []byte) error
	// Ping blocks until the peer answers or ctx ends.
	Ping(ctx context.Context) error
	Close(code int32, reason string) error
}
