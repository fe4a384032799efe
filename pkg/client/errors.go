// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"errors"
	"fmt"
)

// ErrPayloadTooLarge marks a 413 reply. The client chunks every batch
// below the server ceiling, so hitting this means a client invariant
// was violated; it is never retried. Test with errors.Is.
var ErrPayloadTooLarge = errors.New("payload too large")

// HTTPError is a non-success archive reply that is not otherwise
// classified. The client retries these up to its budget before
// surfacing them.
type HTTPError struct {
	Status   int
	Reason   string
	Endpoint string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("archive replied %d %s on %s", e.Status, e.Reason, e.Endpoint)
}

// Is makes errors.Is(err, ErrPayloadTooLarge) match 413 replies.
func (e *HTTPError) Is(target error) bool {
	return target == ErrPayloadTooLarge && e.Status == 413
}

// NoProvenanceAccessError reports a 401 or 403 from a provenance
// endpoint: the account lacks provenance permission. Not retried, and
// it does not affect the discovery phase.
type NoProvenanceAccessError struct {
	Status   int
	Endpoint string
}

func (e *NoProvenanceAccessError) Error() string {
	return fmt.Sprintf("no access to the provenance API (%d on %s)", e.Status, e.Endpoint)
}
