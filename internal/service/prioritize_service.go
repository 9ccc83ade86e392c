package service

import (
	"context"
	"errors"
	"log/slog"

	apperrors "pomofocus/backend/internal/errors"
	"pomofocus/backend/internal/prioritize"
)

type PrioritizeService struct {
	prioritizer *prioritize.Prioritizer
	limiter     *TokenBucket
	logger      *slog.Logger
}

func NewPrioritizeService(prioritizer *prioritize.Prioritizer, limiter *TokenBucket, logger *slog.Logger) *PrioritizeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrioritizeService{prioritizer: prioritizer, limiter: limiter, logger: logger}
}

func (s *PrioritizeService) Prioritize(ctx context.Context, userID string, req prioritize.Request) (*prioritize.Result, *apperrors.APIError) {
	if !s.limiter.Allow(userID) {
		return nil, apperrors.TooManyRequests("prioritization rate limit reached, try again later")
	}

	result, err := s.prioritizer.Prioritize(ctx, req)
	if err == nil {
		return result, nil
	}

	var inputErr *prioritize.InputError
	switch {
	case errors.As(err, &inputErr):
		return nil, apperrors.Validation("invalid tasks", inputErr.Fields)
	case errors.Is(err, prioritize.ErrUnavailable):
		return nil, apperrors.ServiceUnavailable("ai_unavailable", "task prioritization is not configured")
	case errors.Is(err, context.Canceled):
		return nil, apperrors.BadRequest("request_cancelled", "request cancelled")
	default:
		s.logger.Warn("prioritize tasks", "user_id", userID, "error", err)
		return nil, apperrors.BadGateway("ai_bad_response", "task prioritization failed")
	}
}
