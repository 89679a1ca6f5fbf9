package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/romangrishanov/ditado/core"
	"github.com/romangrishanov/ditado/core/classroom"
	"github.com/romangrishanov/ditado/core/dictation"
)

type classroomApi struct {
	svc      classroom.Service
	validate *validator.Validate
}

func registerClassroomAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := classroomApi{
		svc:      deps.ClassroomSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/classrooms", jwt)

	cg.GET("", api.query)
	cg.POST("", api.create, teacherOrAdminMiddleware())
	cg.DELETE("", api.destroyMultiple, teacherOrAdminMiddleware())

	cg.GET("/assignments/:id/report", api.assignmentReport, teacherOrAdminMiddleware())
	cg.DELETE("/assignments/:id", api.unassign, teacherOrAdminMiddleware())

	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update, teacherOrAdminMiddleware())
	cg.POST("/:id/students", api.addStudent, teacherOrAdminMiddleware())
	cg.DELETE("/:id/students/:studentID", api.removeStudent, teacherOrAdminMiddleware())
	cg.POST("/:id/assignments", api.assign, teacherOrAdminMiddleware())
	cg.GET("/:id/assignments", api.assignments)
}

// Handlers

func (api *classroomApi) create(ctx echo.Context) error {
	var data classroom.NewClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassroom")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cls, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject, claims.Username)
	if err != nil {
		return errors.Wrap(err, "creating classroom")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classroomApi) query(ctx echo.Context) error {
	filter := new(classroom.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []classroom.Classroom{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// non-admins only see their own classrooms
	if !claims.IsAdmin {
		if claims.IsTeacher {
			filter.TeacherID = claims.Subject
		} else {
			filter.StudentID = claims.Subject
		}
	}

	classrooms, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying classrooms")
	}
	if classrooms == nil {
		classrooms = []classroom.Classroom{}
	}
	return ctx.JSON(http.StatusOK, classrooms)
}

func (api *classroomApi) retrieve(ctx echo.Context) error {
	cls, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == classroom.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting classroom")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && cls.TeacherID != claims.Subject && !cls.HasStudent(claims.Subject) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classroomApi) update(ctx echo.Context) error {
	id := ctx.Param("id")

	orig, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == classroom.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting classroom")
	}

	var data classroom.UpdateClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClassroom")
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cls, err := api.svc.Update(ctx.Request().Context(), id, data, claims.Subject, claims.IsAdmin)
	if err != nil {
		return api.mapError(err, "updating classroom")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classroomApi) destroyMultiple(ctx echo.Context) error {
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
		return api.mapError(err, "deleting classrooms")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classroomApi) addStudent(ctx echo.Context) error {
	var data AddStudentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddStudentRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	err = api.svc.AddStudent(ctx.Request().Context(), ctx.Param("id"), data.StudentID, claims.Subject, claims.IsAdmin)
	if err != nil {
		switch errors.Cause(err) {
		case classroom.ErrNotAStudent, classroom.ErrAlreadyEnrolled:
			return core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return api.mapError(err, "adding student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classroomApi) removeStudent(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	err = api.svc.RemoveStudent(ctx.Request().Context(), ctx.Param("id"), ctx.Param("studentID"), claims.Subject, claims.IsAdmin)
	if err != nil {
		return api.mapError(err, "removing student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classroomApi) assign(ctx echo.Context) error {
	var data classroom.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	asg, err := api.svc.AssignDictation(ctx.Request().Context(), ctx.Param("id"), data, claims.Subject, claims.IsAdmin)
	if err != nil {
		switch errors.Cause(err) {
		case dictation.ErrNotFound, dictation.ErrInactive:
			return core.NewValidationError(err, core.FieldError{Field: "dictation_id", Error: errors.Cause(err).Error()})
		}
		return api.mapError(err, "assigning dictation")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *classroomApi) assignments(ctx echo.Context) error {
	cls, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == classroom.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting classroom")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && cls.TeacherID != claims.Subject && !cls.HasStudent(claims.Subject) {
		return errHttpNotFound
	}

	assignments, err := api.svc.Assignments(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []classroom.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *classroomApi) unassign(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	err = api.svc.UnassignDictation(ctx.Request().Context(), ctx.Param("id"), claims.Subject, claims.IsAdmin)
	if err != nil {
		return api.mapError(err, "unassigning dictation")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classroomApi) assignmentReport(ctx echo.Context) error {
	summary, err := api.svc.AssignmentReport(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return api.mapError(err, "building assignment report")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *classroomApi) mapError(err error, msg string) error {
	switch errors.Cause(err) {
	case classroom.ErrNotFound, classroom.ErrAssignmentNotFound:
		return errHttpNotFound
	case classroom.ErrNotOwner:
		return errHttpForbidden
	}
	return errors.Wrap(err, msg)
}

type AddStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}
