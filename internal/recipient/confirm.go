package recipient

import "context"

// ConfirmRequest asks the user whether an edited row and its pills may
// be discarded.
type ConfirmRequest struct {
	Kind      Kind
	Header    string
	PillCount int
}

// ConfirmResponse is the user's answer. The zero value is a
// cancellation.
type ConfirmResponse struct {
	Accepted bool
}

// Accepted and Cancelled are the two possible answers.
var (
	Accepted  = ConfirmResponse{Accepted: true}
	Cancelled = ConfirmResponse{}
)

// Confirmer runs a blocking confirmation dialog. A returned error is
// treated like a cancellation by callers that do not propagate it.
type Confirmer interface {
	Confirm(ctx context.Context, req ConfirmRequest) (ConfirmResponse, error)
}

// ConfirmFunc adapts a function to a Confirmer.
type ConfirmFunc func(ctx context.Context, req ConfirmRequest) (ConfirmResponse, error)

func (f ConfirmFunc) Confirm(ctx context.Context, req ConfirmRequest) (ConfirmResponse, error) {
	return f(ctx, req)
}
