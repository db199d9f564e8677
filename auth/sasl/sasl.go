// Package sasl drives the mechanism-agnostic AUTH_LIST → AUTH_SASL_INIT →
// AUTH_SASL_START → AUTH_SASL_STEP CALL sequence. It owns when to issue
// each CALL and how many STEP round-trips a mechanism needs; it never
// interprets the SASL challenge/response bytes themselves — that's left to
// a Mechanism implementation (gssapi.go, plain.go).
package sasl

import (
	"context"
	"fmt"

	"github.com/arterrin/lvrpc/internal/logger"
	"github.com/arterrin/lvrpc/procedure"
)

// caller is the subset of *client.Connection this package needs. Defined
// locally (as package stream does) to avoid a dependency cycle with
// package client, which constructs the negotiation from a Connection.
type caller interface {
	Call(ctx context.Context, procNum int32, args any) (any, error)
}

// Mechanism produces the opaque bytes for one SASL mechanism's handshake.
// Start returns the mechanism's initial response (may be nil for
// mechanisms that speak first only after seeing a server challenge); Step
// consumes the server's challenge and returns the next response plus
// whether the mechanism itself considers the exchange complete.
type Mechanism interface {
	Name() string
	Start() ([]byte, error)
	Step(challenge []byte) (response []byte, done bool, err error)
}

// Negotiate drives the full handshake: AUTH_LIST to confirm the server
// offers mech.Name(), AUTH_SASL_INIT to pick it, AUTH_SASL_START with the
// mechanism's initial response, then an AUTH_SASL_STEP loop until the
// server reports completion. A mechanism that reports itself done still has
// its final non-empty response sent as one more AUTH_SASL_STEP; with an
// empty final response the loop ends without another CALL.
func Negotiate(ctx context.Context, c caller, mech Mechanism) error {
	listReply, err := c.Call(ctx, procedure.ProcAuthList, nil)
	if err != nil {
		return fmt.Errorf("sasl: AUTH_LIST: %w", err)
	}
	_ = listReply.(procedure.AuthListReply) // server's supported auth types; mechanism choice is the caller's

	initReply, err := c.Call(ctx, procedure.ProcAuthSaslInit, nil)
	if err != nil {
		return fmt.Errorf("sasl: AUTH_SASL_INIT: %w", err)
	}
	serverMech := initReply.(procedure.AuthSaslInitReply).Mechanism
	if serverMech != mech.Name() {
		logger.Warn("sasl: server proposed different mechanism", "server", serverMech, "requested", mech.Name())
	}

	initial, err := mech.Start()
	if err != nil {
		return fmt.Errorf("sasl: mechanism start: %w", err)
	}

	startReply, err := c.Call(ctx, procedure.ProcAuthSaslStart, procedure.AuthSaslStartArgs{
		Mechanism: mech.Name(),
		Data:      initial,
	})
	if err != nil {
		return fmt.Errorf("sasl: AUTH_SASL_START: %w", err)
	}
	reply := startReply.(procedure.AuthSaslReply)

	for !reply.Complete {
		resp, done, err := mech.Step(reply.Data)
		if err != nil {
			return fmt.Errorf("sasl: mechanism step: %w", err)
		}
		if done && len(resp) == 0 {
			break
		}
		stepReply, err := c.Call(ctx, procedure.ProcAuthSaslStep, procedure.AuthSaslStepArgs{Data: resp})
		if err != nil {
			return fmt.Errorf("sasl: AUTH_SASL_STEP: %w", err)
		}
		reply = stepReply.(procedure.AuthSaslReply)
	}

	logger.Info("sasl negotiation complete", logger.AuthStr(mech.Name()))
	return nil
}
