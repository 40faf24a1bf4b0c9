package quichelper

import "github.com/quic-go/quic-go"

// Application error codes used when a generator or a listener closes a connection.
const (
	CodeNoError   quic.ApplicationErrorCode = 0
	CodeBadConfig quic.ApplicationErrorCode = 1 // the config could not be read or decoded
	CodeRunFailed quic.ApplicationErrorCode = 2 // records could not be delivered
	CodeBusy      quic.ApplicationErrorCode = 3 // the generator runs as many runs as it allows
)

// StreamCodeCancelled is used when a peer stops reading a stream it no longer needs.
const StreamCodeCancelled quic.StreamErrorCode = 0
