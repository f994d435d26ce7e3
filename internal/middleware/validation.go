package middleware

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

// Field length limits for user-supplied input.
const (
	MaxCountryLen        = 64
	MaxNicheLen          = 64
	MaxSubscriptionIDLen = 64
	MaxExchangeCodeLen   = 512
	MaxPage              = 10000
	MaxFollowers         = 10_000_000_000
)

var (
	// subscriptionIDRe matches PayPal subscription IDs such as I-BW452GLLEP1G.
	subscriptionIDRe = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	// exchangeCodeRe matches opaque one-time login codes.
	exchangeCodeRe = regexp.MustCompile(`^[A-Za-z0-9._~-]+$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// FilterInput is the raw, unvalidated filter query.
type FilterInput struct {
	Country      string
	Niche        string
	MinFollowers string
	MaxFollowers string
	SortBy       string
}

// ValidateFilters parses and checks the dashboard filters. Empty fields mean
// "no filter"; an empty sortBy means followers.
func ValidateFilters(in FilterInput) (model.Filters, string) {
	f := model.Filters{
		Country: strings.TrimSpace(in.Country),
		Niche:   strings.TrimSpace(in.Niche),
		SortBy:  strings.ToLower(strings.TrimSpace(in.SortBy)),
	}
	if len(f.Country) > MaxCountryLen {
		return model.Filters{}, "country must be at most 64 characters"
	}
	if len(f.Niche) > MaxNicheLen {
		return model.Filters{}, "niche must be at most 64 characters"
	}

	switch f.SortBy {
	case "":
		f.SortBy = model.SortByFollowers
	case model.SortByFollowers, model.SortByEngagement:
	default:
		return model.Filters{}, "sortBy must be 'followers' or 'engagement'"
	}

	var errMsg string
	if f.MinFollowers, errMsg = parseFollowers("minFollowers", in.MinFollowers); errMsg != "" {
		return model.Filters{}, errMsg
	}
	if f.MaxFollowers, errMsg = parseFollowers("maxFollowers", in.MaxFollowers); errMsg != "" {
		return model.Filters{}, errMsg
	}
	if f.MinFollowers != nil && f.MaxFollowers != nil && *f.MinFollowers > *f.MaxFollowers {
		return model.Filters{}, "minFollowers must not exceed maxFollowers"
	}
	return f, ""
}

func parseFollowers(field, raw string) (*int64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ""
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 || v > MaxFollowers {
		return nil, field + " must be a non-negative integer"
	}
	return &v, ""
}

// ValidatePage parses a 1-based page number. Empty means page 1.
func ValidatePage(raw string) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, ""
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 || page > MaxPage {
		return 0, "page must be an integer between 1 and 10000"
	}
	return page, ""
}

// ValidateSubscriptionID checks a PayPal subscription ID.
func ValidateSubscriptionID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "subscriptionId is required"
	}
	if len(id) > MaxSubscriptionIDLen {
		return "", "subscriptionId must be at most 64 characters"
	}
	if !subscriptionIDRe.MatchString(id) {
		return "", "subscriptionId contains invalid characters"
	}
	return id, ""
}

// ValidateExchangeCode checks a one-time login code.
func ValidateExchangeCode(code string) (string, string) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", "code is required"
	}
	if len(code) > MaxExchangeCodeLen {
		return "", "code is too long"
	}
	if !exchangeCodeRe.MatchString(code) {
		return "", "code contains invalid characters"
	}
	return code, ""
}
