package router

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"clubportal/internal/access"
	"clubportal/internal/auth"
	"clubportal/internal/errors"
	"clubportal/internal/handler"
)

// PrincipalLoader turns verified token claims into the acting principal.
type PrincipalLoader interface {
	Principal(ctx context.Context, claims *auth.Claims) (*access.Principal, error)
}

// Authorizer decides resource-level access.
type Authorizer interface {
	Evaluate(ctx context.Context, p *access.Principal, resource access.ResourceType, verb access.Verb, objectLevel bool) access.Decision
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// optionalJWT verifies a bearer token when one is sent. Requests without an
// Authorization header pass through as anonymous.
func optionalJWT(jwtService *auth.JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: handler.ClaimsContextKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				return nil, err
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return nil
			}
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: "invalid or expired token",
				Code:  "INVALID_TOKEN",
			})
		},
		ContinueOnIgnoredError: true,
	})
}

// loadPrincipal resolves the claims left by optionalJWT into a principal.
// Revoked tokens and deactivated accounts are rejected here.
func loadPrincipal(loader PrincipalLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := handler.ClaimsFrom(c)
			if claims == nil {
				return next(c)
			}
			p, err := loader.Principal(c.Request().Context(), claims)
			if err != nil {
				if stderrors.Is(err, errors.ErrUnauthorized) {
					return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
						Error: "token revoked or account inactive",
						Code:  "INVALID_TOKEN",
					})
				}
				return err
			}
			if p != nil {
				c.Set(handler.PrincipalContextKey, p)
			}
			return next(c)
		}
	}
}

// requireAuth rejects anonymous callers. Finer checks live in the services.
func requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !handler.PrincipalFrom(c).Authenticated() {
			return deny(nil)
		}
		return next(c)
	}
}

// requirePermission gates a route on the evaluator. The verb comes from the
// HTTP method and routes with an :id parameter are checked at object level.
func requirePermission(authz Authorizer, resource access.ResourceType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := handler.PrincipalFrom(c)
			verb := access.VerbFromMethod(c.Request().Method)
			objectLevel := c.Param("id") != ""
			if authz.Evaluate(c.Request().Context(), p, resource, verb, objectLevel) == access.Deny {
				return deny(p)
			}
			return next(c)
		}
	}
}

func deny(p *access.Principal) error {
	if !p.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: errors.ErrUnauthorized.Error(),
			Code:  "UNAUTHORIZED",
		})
	}
	return echo.NewHTTPError(http.StatusForbidden, errors.ErrorResponse{
		Error: errors.ErrForbidden.Error(),
		Code:  "FORBIDDEN",
	})
}
