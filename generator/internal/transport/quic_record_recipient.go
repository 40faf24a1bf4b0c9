package transport

import (
	"context"
	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"
	"github.com/varfrog/msgstream/generator/internal/app"
	"github.com/varfrog/msgstream/pkg/quichelper"
	"github.com/varfrog/msgstream/pkg/sdk"
	"time"
)

// QUICRecordRecipient implements app.RecordRecipient on the send side of a QUIC stream.
type QUICRecordRecipient struct {
	stream       quic.SendStream
	writeTimeout time.Duration
}

var _ app.RecordRecipient = (*QUICRecordRecipient)(nil)

// NewQUICRecordRecipient is the constructor for QUICRecordRecipient. A zero writeTimeout disables write deadlines.
func NewQUICRecordRecipient(stream quic.SendStream, writeTimeout time.Duration) *QUICRecordRecipient {
	return &QUICRecordRecipient{stream: stream, writeTimeout: writeTimeout}
}

func (s *QUICRecordRecipient) SendRecord(ctx context.Context, record sdk.MessageRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.writeTimeout > 0 {
		if err := s.stream.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return errors.Wrap(err, "SetWriteDeadline")
		}
	}
	if err := quichelper.SendRecord(s.stream, record); err != nil {
		return errors.Wrap(err, "quichelper.SendRecord")
	}
	return nil
}
