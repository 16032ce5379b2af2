package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core/user"
)

// roleMiddleware lets the request through when allowed holds for the context user.
func roleMiddleware(allowed func(usr *user.User) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if allowed(&usr) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware((*user.User).IsAdmin)
}

func staffMiddleware() echo.MiddlewareFunc {
	return roleMiddleware((*user.User).IsStaff)
}

func mentorMiddleware() echo.MiddlewareFunc {
	return roleMiddleware((*user.User).IsMentor)
}

func beneficiaryMiddleware() echo.MiddlewareFunc {
	return roleMiddleware((*user.User).IsBeneficiary)
}
