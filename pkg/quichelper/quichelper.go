// Package quichelper contains the wire codec shared by generators and listeners, and helpers
// for setting up QUIC connections.
//
// Every document on a stream is a single line of JSON. A listener sends one sdk.GenerationConfig,
// the generator answers with one sdk.MessageRecord per line and closes its side of the stream
// once the run has finished.
package quichelper

import (
	"bufio"
	"encoding/json"
	"github.com/pkg/errors"
	"github.com/varfrog/msgstream/pkg/sdk"
	"io"
	"net"
)

// MaxLineBytes limits the size of a single document read from a stream.
const MaxLineBytes = 64 * 1024

// SendConfig writes config as a single line to w.
func SendConfig(w io.Writer, config sdk.GenerationConfig) error {
	return writeLine(w, config)
}

// SendRecord writes record as a single line to w.
func SendRecord(w io.Writer, record sdk.MessageRecord) error {
	return writeLine(w, record)
}

// ReceiveConfig reads the first line from r and unmarshalls it into sdk.GenerationConfig.
// Returns UnmarshalError if the config is corrupt.
// Returns ErrNetworkTimeout on timeout.
func ReceiveConfig(r io.Reader) (sdk.GenerationConfig, error) {
	scanner := newLineScanner(r)
	line, err := scanLine(scanner)
	if err != nil {
		return sdk.GenerationConfig{}, err
	}

	var config sdk.GenerationConfig
	if err := json.Unmarshal(line, &config); err != nil {
		return sdk.GenerationConfig{}, &UnmarshalError{Data: line, Err: err}
	}
	return config, nil
}

// RecordReader reads records sent with SendRecord.
type RecordReader struct {
	scanner *bufio.Scanner
}

func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{scanner: newLineScanner(r)}
}

// Next returns the next record. Returns io.EOF once the sender has closed the stream,
// UnmarshalError for a corrupt line and ErrNetworkTimeout on timeout.
func (s *RecordReader) Next() (sdk.MessageRecord, error) {
	line, err := scanLine(s.scanner)
	if err != nil {
		return sdk.MessageRecord{}, err
	}

	var record sdk.MessageRecord
	if err := json.Unmarshal(line, &record); err != nil {
		return sdk.MessageRecord{}, &UnmarshalError{Data: line, Err: err}
	}
	return record, nil
}

func writeLine(w io.Writer, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "json.Marshal")
	}
	body = append(body, '\n')

	writtenBytes, err := w.Write(body)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return ErrNetworkTimeout
		}
		return errors.Wrap(err, "Write")
	}
	if writtenBytes < len(body) {
		return errors.Errorf("written %d bytes, message length is %d bytes", writtenBytes, len(body))
	}
	return nil
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), MaxLineBytes)
	return scanner
}

// scanLine returns a copy of the next line, io.EOF when there are no more lines.
func scanLine(scanner *bufio.Scanner) ([]byte, error) {
	if !scanner.Scan() {
		err := scanner.Err()
		if err == nil {
			return nil, io.EOF
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrNetworkTimeout
		}
		return nil, errors.Wrap(err, "scanner.Scan")
	}
	line := make([]byte, len(scanner.Bytes()))
	copy(line, scanner.Bytes())
	return line, nil
}
