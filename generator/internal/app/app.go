package app

import (
	"context"
	"github.com/varfrog/msgstream/pkg/sdk"
	"time"
)

//go:generate mockgen -source app.go -destination mocks/app.go

// RecordRecipient describes a listener that generated records are handed off to.
type RecordRecipient interface {
	SendRecord(ctx context.Context, record sdk.MessageRecord) error
}

// Sleeper suspends a generation run between emissions.
type Sleeper interface {
	// Sleep blocks for d or until ctx is done, in which case it returns ctx.Err().
	Sleep(ctx context.Context, d time.Duration) error
}
