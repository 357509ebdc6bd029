package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/school"
)

type schoolApi struct {
	svc      *school.Service
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, svc *school.Service, validate *validator.Validate) {
	api := schoolApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/classes")
	cg.GET("", api.queryClasses, requireAccess(access.ReadClasses))
	cg.POST("", api.createClass, requireAccess(access.CreateClass))
	cg.GET("/:classId", api.retrieveClass, requireAccess(access.ReadClass))
	cg.GET("/:classId/assignments", api.queryAssignments, requireAccess(access.ReadAssignments))
	cg.POST("/:classId/assignments", api.createAssignment, requireAccess(access.CreateAssignment))
	cg.GET("/:classId/attendance", api.queryAttendance, requireAccess(access.ReadAttendance))
	cg.POST("/:classId/attendance", api.markAttendance, requireAccess(access.CreateAttendance))

	g.POST("/assignments/:assignmentId/grades", api.createGrade, requireAccess(access.CreateGrade))
	g.GET("/students/:studentId/grades", api.queryStudentGrades, requireAccess(access.ReadGrades))
}

// Handlers

func (api *schoolApi) queryClasses(ctx echo.Context) error {
	classes, err := api.svc.QueryClasses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolApi) createClass(ctx echo.Context) error {
	var data school.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *schoolApi) retrieveClass(ctx echo.Context) error {
	id, err := paramID(ctx, "classId")
	if err != nil {
		return err
	}
	cls, err := api.svc.GetClass(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "retrieving class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *schoolApi) queryAssignments(ctx echo.Context) error {
	classID, err := paramID(ctx, "classId")
	if err != nil {
		return err
	}
	asgmts, err := api.svc.QueryAssignments(ctx.Request().Context(), classID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, asgmts)
}

func (api *schoolApi) createAssignment(ctx echo.Context) error {
	classID, err := paramID(ctx, "classId")
	if err != nil {
		return err
	}
	var data school.NewAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	data.ClassID = classID
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	asgmt, err := api.svc.CreateAssignment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, asgmt)
}

func (api *schoolApi) createGrade(ctx echo.Context) error {
	asgmtID, err := paramID(ctx, "assignmentId")
	if err != nil {
		return err
	}
	var data school.NewGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	data.AssignmentID = asgmtID
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	grade, err := api.svc.CreateGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating grade")
	}
	return ctx.JSON(http.StatusCreated, grade)
}

func (api *schoolApi) queryStudentGrades(ctx echo.Context) error {
	studentID, err := paramID(ctx, "studentId")
	if err != nil {
		return err
	}
	grades, err := api.svc.QueryStudentGrades(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying student grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *schoolApi) markAttendance(ctx echo.Context) error {
	classID, err := paramID(ctx, "classId")
	if err != nil {
		return err
	}
	var data school.NewAttendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	data.ClassID = classID
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	att, err := api.svc.MarkAttendance(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *schoolApi) queryAttendance(ctx echo.Context) error {
	classID, err := paramID(ctx, "classId")
	if err != nil {
		return err
	}
	atts, err := api.svc.QueryClassAttendance(ctx.Request().Context(), classID)
	if err != nil {
		return errors.Wrap(err, "querying class attendance")
	}
	return ctx.JSON(http.StatusOK, atts)
}
