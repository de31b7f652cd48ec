package echoServer

import (
	"net/http"

	"github.com/RicardoJSequeda/bienestar-hub-sub000/app/echoServer/controller/award"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/app/echoServer/controller/loan"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/app/echoServer/controller/queue"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/app/echoServer/controller/resource"
	"github.com/RicardoJSequeda/bienestar-hub-sub000/app/echoServer/jwtx"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type C struct {
	Loan      *loan.Controller
	Queue     *queue.Controller
	Resource  *resource.Controller
	Award     *award.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	e.GET("/healthz", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	// user_id + role extraction from the verified token
	auth.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			uid, err := jwtx.UserIDFromContext(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", uid)
			if role, err := jwtx.RoleFromContext(ctx); err == nil {
				ctx.Set("role", role)
			}
			return next(ctx)
		}
	})

	// Catalog
	auth.GET("/categories", c.Resource.ListCategories)
	auth.GET("/resources", c.Resource.List)
	auth.GET("/resources/:id", c.Resource.Detail)
	// Admin endpoints
	auth.POST("/categories", c.Resource.CreateCategory)
	auth.POST("/resources", c.Resource.Create)
	auth.PATCH("/resources/:id/status", c.Resource.SetStatus)

	// Loans
	auth.POST("/loans", c.Loan.Create)
	auth.GET("/loans/my", c.Loan.MyLoans)
	auth.GET("/loans/pending", c.Loan.Pending)
	auth.POST("/loans/:id/approve", c.Loan.Approve)
	auth.POST("/loans/:id/reject", c.Loan.Reject)
	auth.POST("/loans/:id/deliver", c.Loan.Deliver)
	auth.POST("/loans/:id/return", c.Loan.Return)
	auth.POST("/loans/:id/expire", c.Loan.Expire)
	auth.DELETE("/loans/:id", c.Loan.Cancel)
	auth.POST("/loans/:id/extension", c.Loan.RequestExtension)
	auth.POST("/loans/:id/extension/decision", c.Loan.DecideExtension)
	auth.POST("/loans/:id/lost", c.Loan.MarkLost)
	auth.POST("/loans/:id/damaged", c.Loan.MarkDamaged)
	auth.POST("/loans/:id/rating", c.Loan.Rate)

	// Waitlist
	auth.POST("/resources/:id/queue", c.Queue.Join)
	auth.DELETE("/resources/:id/queue", c.Queue.Leave)
	auth.POST("/resources/:id/queue/notify", c.Queue.NotifyHead)
	auth.GET("/resources/:id/queue", c.Queue.ForResource)
	auth.GET("/queue/my", c.Queue.MyEntries)
	auth.POST("/queue/entries/:id/enroll", c.Loan.EnrollFromWaitlist)

	// Awards
	auth.POST("/awards", c.Award.Grant)
	auth.DELETE("/awards", c.Award.Revoke)
	auth.GET("/awards/my", c.Award.MyAwards)
	auth.GET("/notifications/my", c.Award.MyNotifications)
}
