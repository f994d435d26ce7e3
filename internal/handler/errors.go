package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/FacundoMartinezR/TikTokFinder/internal/account"
	"github.com/FacundoMartinezR/TikTokFinder/internal/directory"
	"github.com/FacundoMartinezR/TikTokFinder/internal/middleware"
	"github.com/FacundoMartinezR/TikTokFinder/internal/service"
)

// statusClientClosed is the de facto status for a request the client
// abandoned; nobody reads the response.
const statusClientClosed = 499

// serviceError maps a service error to the API error envelope. fallback is
// the message used for unexpected errors.
func serviceError(c fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, account.ErrUnauthenticated):
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "Sign in to continue")
	case errors.Is(err, service.ErrForbidden):
		return middleware.ErrorResponse(c, fiber.StatusForbidden, "FORBIDDEN", "Your plan does not include this feature")
	case errors.Is(err, service.ErrNoSubscription):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "NO_SUBSCRIPTION", "There is no active subscription to cancel")
	case errors.Is(err, service.ErrAlreadySubscribed):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "ALREADY_SUBSCRIBED", "You already have an active subscription")
	case errors.Is(err, account.ErrRejected):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "REJECTED", "The billing service rejected the request")
	case errors.Is(err, context.Canceled):
		middleware.Logger.Debug().Str("request_id", middleware.RequestID(c)).Str("path", c.Path()).Msg("client went away")
		return middleware.ErrorResponse(c, statusClientClosed, "CLIENT_CLOSED", "Request cancelled by the client")
	case errors.Is(err, context.DeadlineExceeded):
		logUpstreamError(c, err)
		return middleware.ErrorResponse(c, fiber.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "An upstream service did not answer in time")
	case errors.Is(err, directory.ErrUpstream), errors.Is(err, account.ErrUpstream):
		logUpstreamError(c, err)
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "An upstream service failed")
	default:
		middleware.Logger.Error().Err(err).Str("request_id", middleware.RequestID(c)).Msg(fallback)
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

func logUpstreamError(c fiber.Ctx, err error) {
	middleware.Logger.Warn().Err(err).
		Str("request_id", middleware.RequestID(c)).
		Str("path", c.Path()).
		Msg("upstream call failed")
}

// session builds the caller's session from the Cookie header. The header is
// copied because fiber reuses request buffers.
func session(c fiber.Ctx) service.Session {
	return service.NewSession(strings.Clone(c.Get(fiber.HeaderCookie)))
}

// forwardCookies copies upstream Set-Cookie values onto the response.
func forwardCookies(c fiber.Ctx, cookies []string) {
	for _, ck := range cookies {
		c.Response().Header.Add(fiber.HeaderSetCookie, ck)
	}
}
