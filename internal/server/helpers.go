package server

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"memoria/internal/middleware"
	"memoria/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// listParams holds the shared page/sort/filter query parameters of list endpoints.
type listParams struct {
	Page     int
	PageSize int
	SortBy   string
	Keyword  string
	IsPublic *bool
}

// parseListParams reads page, pageSize, sortBy, keyword and isPublic.
// On an unparsable isPublic it writes a 400 and returns errResponseWritten.
func parseListParams(c *fiber.Ctx) (listParams, error) {
	p := listParams{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("pageSize", 0),
		SortBy:   strings.TrimSpace(c.Query("sortBy")),
		Keyword:  c.Query("keyword"),
	}
	if raw := strings.TrimSpace(c.Query("isPublic")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("isPublic must be true or false"))
			return p, errResponseWritten
		}
		p.IsPublic = &v
	}
	return p, nil
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseBody decodes the JSON body into dest or writes a 400.
func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "groupId" -> "group ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// mapServiceError returns the HTTP status for err; anything that is not an
// AppError is a 500.
func mapServiceError(err error) int {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Status()
	}
	return fiber.StatusInternalServerError
}

// respondServiceError writes err with its mapped status and logs server-side failures.
func respondServiceError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}
