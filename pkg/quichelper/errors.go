package quichelper

import (
	"errors"
	"fmt"
)

// ErrNetworkTimeout is a network timeout, returned in place of a net.Error with Timeout()=true.
var ErrNetworkTimeout = errors.New("network timeout")

// UnmarshalError is returned when a peer sends a document that cannot be decoded.
type UnmarshalError struct {
	Data []byte // the undecodable line
	Err  error
}

func (e UnmarshalError) Error() string {
	return fmt.Sprintf("unmarshal %q: %v", e.Data, e.Err)
}

func (e UnmarshalError) Unwrap() error {
	return e.Err
}
