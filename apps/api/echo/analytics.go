package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/analytics"
)

type analyticsApi struct {
	svc *analytics.Service
}

func registerAnalyticsAPI(g *echo.Group, svc *analytics.Service) {
	api := analyticsApi{svc: svc}

	ag := g.Group("/analytics", requireAccess(access.ViewAnalytics))
	ag.GET("/summary", api.summary)
	ag.GET("/trends", api.trends)
}

func (api *analyticsApi) summary(ctx echo.Context) error {
	sum, err := api.svc.Summary(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing summary")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *analyticsApi) trends(ctx echo.Context) error {
	points, err := api.svc.Trends(ctx.QueryParam("timeRange"))
	if err != nil {
		return errors.Wrap(err, "computing trends")
	}
	return ctx.JSON(http.StatusOK, points)
}
