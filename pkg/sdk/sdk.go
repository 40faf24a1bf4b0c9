// Package sdk exports the values exchanged between a generator and its listeners.
package sdk

import (
	"strconv"
	"time"
)

// GenerationConfig starts one generation run.
type GenerationConfig struct {
	Key        string `json:"key"`
	Msg        string `json:"msg"`
	MsgCount   int    `json:"msgCount"`
	IntervalMs int    `json:"millisecond"`
}

// Interval is the wait after each emitted record.
func (c GenerationConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// MessageRecord is a single generated message. Values are copied, never shared.
type MessageRecord struct {
	ID      int    `json:"id"`
	Key     string `json:"key"`
	Message string `json:"message"`
}

func NewMessageRecord(id int, key string, message string) MessageRecord {
	return MessageRecord{ID: id, Key: key, Message: message}
}

// Format renders the record as "<key>-<id>: <message>", e.g. "VWT-1: HelloWorld".
func (r MessageRecord) Format() string {
	return r.Key + "-" + strconv.Itoa(r.ID) + ": " + r.Message
}
