package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/romangrishanov/ditado/core"
	"github.com/romangrishanov/ditado/core/dictation"
)

type dictationApi struct {
	svc      dictation.Service
	catSvc   dictation.CategoryService
	validate *validator.Validate
}

func registerDictationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := dictationApi{
		svc:      deps.DictationSvc,
		catSvc:   deps.CategorySvc,
		validate: deps.Validate,
	}

	dg := g.Group("/dictations", jwt)

	dg.GET("", api.query)
	dg.POST("", api.create, teacherOrAdminMiddleware())
	dg.DELETE("", api.destroyMultiple, teacherOrAdminMiddleware())

	// the full dictation carries the blank answers; teachers only
	dg.GET("/:id", api.retrieve, teacherOrAdminMiddleware())
	dg.PUT("/:id", api.update, teacherOrAdminMiddleware())
	dg.GET("/:id/attempts", api.queryAttempts, teacherOrAdminMiddleware())

	// student-facing endpoints
	dg.GET("/:id/take", api.take)
	dg.POST("/:id/attempts", api.submitAttempt)
	dg.GET("/:id/attempts/mine", api.queryOwnAttempts)
}

// Handlers

func (api *dictationApi) create(ctx echo.Context) error {
	var data dictation.NewDictation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDictation")
	}
	if err := data.Validate(api.validate, api.catSvc); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	authorName := claims.Username

	d, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject, authorName)
	if err != nil {
		return errors.Wrap(err, "creating dictation")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *dictationApi) query(ctx echo.Context) error {
	filter := new(dictation.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []dictation.Dictation{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// students only see active dictations
	if !(claims.IsTeacher || claims.IsAdmin) {
		active := true
		filter.IsActive = &active
	}

	dictations, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying dictations")
	}
	if dictations == nil {
		dictations = []dictation.Dictation{}
	}
	return ctx.JSON(http.StatusOK, dictations)
}

func (api *dictationApi) retrieve(ctx echo.Context) error {
	d, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == dictation.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting dictation")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *dictationApi) take(ctx echo.Context) error {
	view, err := api.svc.GetForTaking(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		switch errors.Cause(err) {
		case dictation.ErrNotFound, dictation.ErrInactive:
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting dictation for taking")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *dictationApi) update(ctx echo.Context) error {
	id := ctx.Param("id")

	orig, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == dictation.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting dictation")
	}

	var data dictation.UpdateDictation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDictation")
	}
	if err := data.Validate(orig, api.validate, api.catSvc); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	d, err := api.svc.Update(ctx.Request().Context(), id, data, claims.Subject, claims.IsAdmin)
	if err != nil {
		if errors.Cause(err) == dictation.ErrNotAuthor {
			return errHttpForbidden
		}
		return errors.Wrap(err, "updating dictation")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *dictationApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Delete(ctx.Request().Context(), claims.Subject, claims.IsAdmin, query.IDs...); err != nil {
		switch errors.Cause(err) {
		case dictation.ErrNotFound:
			return errHttpNotFound
		case dictation.ErrNotAuthor:
			return errHttpForbidden
		}
		return errors.Wrap(err, "deleting dictations")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *dictationApi) submitAttempt(ctx echo.Context) error {
	var data dictation.NewAttempt
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttempt")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	att, err := api.svc.Submit(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.Answers)
	if err != nil {
		switch errors.Cause(err) {
		case dictation.ErrNotFound:
			return errHttpNotFound
		case dictation.ErrInactive:
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "submitting attempt")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *dictationApi) queryAttempts(ctx echo.Context) error {
	filter := dictation.AttemptFilter{
		DictationID: ctx.Param("id"),
		StudentID:   ctx.QueryParam("student"),
	}
	return api.respondAttempts(ctx, filter)
}

func (api *dictationApi) queryOwnAttempts(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	filter := dictation.AttemptFilter{
		DictationID: ctx.Param("id"),
		StudentID:   claims.Subject,
	}
	return api.respondAttempts(ctx, filter)
}

func (api *dictationApi) respondAttempts(ctx echo.Context, filter dictation.AttemptFilter) error {
	attempts, err := api.svc.QueryAttempts(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying attempts")
	}
	if attempts == nil {
		attempts = []dictation.Attempt{}
	}
	return ctx.JSON(http.StatusOK, attempts)
}
