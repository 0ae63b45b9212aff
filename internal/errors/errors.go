package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type BusinessErr struct {
	target  string
	message string
}

func (e *BusinessErr) Error() string {
	return e.message
}

func (e *BusinessErr) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Target  string `json:"target"`
		Message string `json:"message"`
	}{Target: e.target, Message: e.message})
}

func NewBusinessErr(target string, msg string) error {
	return &BusinessErr{
		target:  target,
		message: msg,
	}
}

type EntryNotFoundErr struct {
	message string
}

func (e *EntryNotFoundErr) Error() string {
	return e.message
}

func NewEntryNotFoundErr(msg string) *EntryNotFoundErr {
	return &EntryNotFoundErr{message: msg}
}

// Kind classifies failure of remote call
type Kind int

const (
	// KindServer means backend answered but reported failure
	KindServer Kind = iota
	// KindNetwork means backend wasn't reached
	KindNetwork
	// KindTimeout means backend didn't answer in time
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	default:
		return "server"
	}
}

// RemoteErr is failure of remote data call
type RemoteErr struct {
	kind    Kind
	code    string
	message string
	cause   error
}

func (e *RemoteErr) Error() string {
	return e.message
}

func (e *RemoteErr) Unwrap() error {
	return e.cause
}

// Kind returns failure classification
func (e *RemoteErr) Kind() Kind {
	return e.kind
}

// Code returns backend error code if backend provided any
func (e *RemoteErr) Code() string {
	return e.code
}

// Offline reports whether the failure means backend is unreachable.
// Server failure is offline too when its message reads as one, message and flag never disagree.
func (e *RemoteErr) Offline() bool {
	if e.kind == KindNetwork || e.kind == KindTimeout {
		return true
	}
	return Classify(e.message) != KindServer
}

func NewNetworkErr(msg string, cause error) *RemoteErr {
	return &RemoteErr{kind: KindNetwork, message: msg, cause: cause}
}

func NewTimeoutErr(msg string) *RemoteErr {
	return &RemoteErr{kind: KindTimeout, message: msg}
}

func NewServerErr(code, msg string, cause error) *RemoteErr {
	return &RemoteErr{kind: KindServer, code: code, message: msg, cause: cause}
}

// Wrap converts arbitrary error to RemoteErr keeping its message. Kind is derived from message.
func Wrap(err error) *RemoteErr {
	var remoteErr *RemoteErr
	if errors.As(err, &remoteErr) {
		return remoteErr
	}
	return &RemoteErr{kind: Classify(err.Error()), message: err.Error(), cause: err}
}

var offlineIndicators = []string{"network", "fetch", "timed out"}

// Classify guesses kind of failure from message text
func Classify(msg string) Kind {
	lower := strings.ToLower(msg)
	for _, indicator := range offlineIndicators {
		if strings.Contains(lower, indicator) {
			if indicator == "timed out" {
				return KindTimeout
			}
			return KindNetwork
		}
	}
	return KindServer
}

// IsOffline reports whether err means backend can't be reached.
// Structured errors are classified by kind and message, anything else by message.
func IsOffline(err error) bool {
	if err == nil {
		return false
	}

	var remoteErr *RemoteErr
	if errors.As(err, &remoteErr) {
		return remoteErr.Offline()
	}
	return Classify(err.Error()) != KindServer
}

// FromMessage builds error for failure reported by backend as plain message
func FromMessage(msg string) *RemoteErr {
	return &RemoteErr{kind: Classify(msg), message: msg}
}

// Timeoutf builds timeout error with formatted message
func Timeoutf(format string, args ...any) *RemoteErr {
	return NewTimeoutErr(fmt.Sprintf(format, args...))
}
