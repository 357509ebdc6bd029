package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/user"
)

type userApi struct {
	svc        *user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserAPI(g *echo.Group, svc *user.Service, validate *validator.Validate, translator ut.Translator) {
	api := userApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	ug := g.Group("/users")
	ug.GET("", api.query, requireAccess(access.ListUsers))
	ug.POST("", api.create, requireAccess(access.CreateUser))
	ug.POST("/bulk", api.createBulk, requireAccess(access.CreateUsers))
}

// Handlers

func (api *userApi) query(ctx echo.Context) error {
	users, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) createBulk(ctx echo.Context) error {
	var raw []json.RawMessage
	if err := json.NewDecoder(ctx.Request().Body).Decode(&raw); err != nil || raw == nil {
		return errBulkNotArray
	}

	data := make([]user.NewUser, len(raw))
	for i, msg := range raw {
		prefix := fmt.Sprintf("[%d].", i)
		if err := json.Unmarshal(msg, &data[i]); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: fmt.Sprintf("[%d]", i), Error: "invalid user"})
		}
		if err := data[i].Validate(api.validate); err != nil {
			switch vErr := err.(type) {
			case validator.ValidationErrors:
				flds, _ := core.TranslateFieldErrors(vErr, api.translator)
				return core.ValidationError{Err: err, Fields: flds}.PrefixFields(prefix)
			case *core.ValidationError:
				return vErr.PrefixFields(prefix)
			default:
				return errors.Wrap(err, "validating NewUser")
			}
		}
	}

	users, err := api.svc.CreateMany(ctx.Request().Context(), data)
	if err != nil {
		if _, ok := errors.Cause(err).(*core.ValidationError); ok || core.IsShutdown(err) {
			return errors.Wrap(err, "creating users")
		}
		// a failed batch is reported to the caller with the store's message
		return core.NewValidationError(err)
	}
	return ctx.JSON(http.StatusCreated, users)
}
