package exchange

import (
	"github.com/mexoms/perpunify/pkg/types"
	"github.com/mexoms/perpunify/pkg/xerrors"
)

// ValidateOrderRequest runs the pre-call checks spec.md §4.8.3 requires
// before any createOrder reaches the request pipeline: required fields
// by type, positive numeric bounds, known enum values, and
// postOnly⇒timeInForce=PO. A failure here must never consume a
// rate-limit token.
func ValidateOrderRequest(venueID string, req types.OrderRequest) error {
	return req.Validate(venueID)
}

// RequireCapability throws NotSupported when the driver does not offer
// cap at all (neither native nor emulated), per spec.md §4.8.1.
func RequireCapability(venueID string, caps Capabilities, cap Capability) error {
	if !caps.Supports(cap) {
		return xerrors.New(xerrors.NotSupported, venueID, string(cap)+" is not supported by this venue")
	}
	return nil
}
