package app

import (
	"context"
	"fmt"
	"github.com/pkg/errors"
	"github.com/varfrog/msgstream/pkg/sdk"
	"io"
)

// WriterRecipient implements RecordRecipient by printing formatted records, one per line.
type WriterRecipient struct {
	w io.Writer
}

var _ RecordRecipient = (*WriterRecipient)(nil)

func NewWriterRecipient(w io.Writer) *WriterRecipient {
	return &WriterRecipient{w: w}
}

func (s *WriterRecipient) SendRecord(_ context.Context, record sdk.MessageRecord) error {
	if _, err := fmt.Fprintln(s.w, record.Format()); err != nil {
		return errors.Wrap(err, "fmt.Fprintln")
	}
	return nil
}
