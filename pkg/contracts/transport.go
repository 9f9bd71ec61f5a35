package contracts

import (
	"context"

	"github.com/XavierBriggs/Ares/pkg/models"
)

// Transport executes a single physical request against an upstream source.
// Implementations make exactly one attempt; retries, rate limiting, and
// circuit breaking belong to the request pipeline in front of it.
type Transport interface {
	Send(ctx context.Context, req *models.SourceRequest) (*models.SourceResponse, error)
}

// RequestPipeline executes one logical outbound request with rate limiting,
// circuit breaking, and retries applied
type RequestPipeline interface {
	Do(ctx context.Context, req *models.SourceRequest) (*models.SourceResponse, error)
}
