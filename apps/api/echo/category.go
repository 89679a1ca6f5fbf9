package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/romangrishanov/ditado/core/category"
)

type categoryApi struct {
	svc      category.Service
	validate *validator.Validate
}

func registerCategoryAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := categoryApi{
		svc:      deps.CategorySvc,
		validate: deps.Validate,
	}

	cg := g.Group("/categories", jwt)

	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.POST("", api.create, adminMiddleware())
	cg.PUT("/:id", api.update, adminMiddleware())
	cg.DELETE("", api.destroyMultiple, adminMiddleware())
}

// Handlers

func (api *categoryApi) create(ctx echo.Context) error {
	var data category.NewCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCategory")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	cat, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating category")
	}
	return ctx.JSON(http.StatusCreated, cat)
}

func (api *categoryApi) query(ctx echo.Context) error {
	filter := new(category.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []category.Category{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	cats, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying categories")
	}
	if cats == nil {
		cats = []category.Category{}
	}
	return ctx.JSON(http.StatusOK, cats)
}

func (api *categoryApi) retrieve(ctx echo.Context) error {
	cat, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == category.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting category")
	}
	return ctx.JSON(http.StatusOK, cat)
}

func (api *categoryApi) update(ctx echo.Context) error {
	id := ctx.Param("id")

	orig, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == category.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting category")
	}

	var data category.UpdateCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCategory")
	}
	if err := data.Validate(orig, api.validate, api.svc); err != nil {
		return err
	}

	cat, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating category")
	}
	return ctx.JSON(http.StatusOK, cat)
}

func (api *categoryApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting categories")
	}
	return ctx.NoContent(http.StatusNoContent)
}
