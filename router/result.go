// Package router implements the response router (C6): deserializing
// inbound AECP payloads via the static per-command dispatch table and
// invoking either the stored per-call handler (solicited) or the delegate
// observer (unsolicited).
//
// The dispatcher (C5) owns response correlation and imports this package
// for the handler/result types and the taxonomy errors it needs on the
// UnknownEntity/Timeout paths that never reach the dispatch table; router
// itself has no dependency back on package dispatcher.
package router

import (
	"errors"

	"github.com/gopatchy/avdecc/protocol"
)

// Taxonomy errors, §7.
var (
	ErrUnknownEntity = errors.New("router: target entity not in registry")
	ErrTimeout       = errors.New("router: command timed out")
	ErrProtocolError = errors.New("router: malformed or unexpected response")
	ErrInternalError = errors.New("router: no dispatch entry for command type")
)

// AecpResult is delivered to an AecpHandler on every terminal outcome of an
// AEM/AA/MVU command: success, a non-SUCCESS status, or one of the
// taxonomy errors above. Exactly one of Value/Err is meaningful depending
// on Err being nil.
type AecpResult struct {
	Status      protocol.AecpStatus
	CommandType protocol.AemCommandType
	Value       interface{}
	Err         error
}

// AecpHandler is a per-call result receiver, wrapped by package controller
// around a typed callback (§4.7).
type AecpHandler func(AecpResult)

// AcmpResult is delivered to an AcmpHandler on every terminal outcome of an
// ACMP command.
type AcmpResult struct {
	Status protocol.AcmpStatus
	Pdu    protocol.Acmpdu
	Err    error
}

type AcmpHandler func(AcmpResult)
