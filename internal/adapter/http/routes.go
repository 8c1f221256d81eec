package http

import "github.com/labstack/echo/v4"

// Routes bundles the handlers mounted by Register. Idempotency may be nil,
// in which case POST /api/loans runs without replay protection.
type Routes struct {
	Health      *Handler
	Subscribers *SubscriberHandler
	Documents   *DocumentHandler
	Loans       *LoanHandler
	Idempotency echo.MiddlewareFunc
}

func Register(e *echo.Echo, r Routes) {
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health", r.Health.Health)

	api := e.Group("/api")

	s := api.Group("/subscribers")
	s.GET("", r.Subscribers.List)
	s.POST("", r.Subscribers.Create)
	s.GET("/:id", r.Subscribers.Get)
	s.PUT("/:id", r.Subscribers.Update)
	s.DELETE("/:id", r.Subscribers.Delete)
	s.POST("/:id/reconcile", r.Subscribers.Reconcile)

	d := api.Group("/documents")
	d.GET("", r.Documents.List)
	d.POST("", r.Documents.Create)
	d.GET("/:id", r.Documents.Get)
	d.PUT("/:id", r.Documents.Update)
	d.DELETE("/:id", r.Documents.Delete)
	d.POST("/:id/reconcile", r.Documents.Reconcile)

	l := api.Group("/loans")
	var createMW []echo.MiddlewareFunc
	if r.Idempotency != nil {
		createMW = append(createMW, r.Idempotency)
	}
	l.GET("", r.Loans.List)
	l.POST("", r.Loans.CreateLoan, createMW...)
	l.GET("/:id", r.Loans.GetLoan)
	l.POST("/:id/return", r.Loans.ReturnLoan)
	l.POST("/:id/extend", r.Loans.ExtendLoan)
	l.DELETE("/:id", r.Loans.DeleteLoan)
}
