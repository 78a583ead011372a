package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/handler"
	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/middleware"
)

// handlers groups every HTTP handler mounted by setupRouter
type handlers struct {
	imports   *handler.ImportHandler
	movements *handler.MovementHandler
	approvals *handler.ApprovalHandler
	activity  *handler.ActivityHandler
	dashboard *handler.DashboardHandler
	org       *handler.OrgHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, h handlers, security Security) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	v1 := r.Group("/api/v1")
	if security.Limiter != nil {
		v1.Use(middleware.RateLimit(logger, security.Limiter))
	}
	v1.Use(middleware.Auth(logger, security.Tokens, security.Principals))
	{
		imports := v1.Group("/import")
		{
			imports.POST("/validate", h.imports.Validate)
			imports.POST("/execute", h.imports.Execute)
		}

		movements := v1.Group("/movements")
		{
			movements.POST("", h.movements.Create)
			movements.GET("", h.movements.List)
			movements.GET("/:id", h.movements.Get)
			movements.PATCH("/:id", h.movements.Update)
			movements.DELETE("/:id", h.movements.Delete)

			movements.POST("/:id/split", h.movements.Split)
			movements.PUT("/:id/split", h.movements.UpdateSplit)
			movements.DELETE("/:id/split", h.movements.Unsplit)

			movements.POST("/:id/finalize", h.approvals.Finalize)
			movements.POST("/:id/approve", h.approvals.Approve)
			movements.POST("/:id/reject", h.approvals.Reject)
			movements.POST("/:id/cancel", h.approvals.Cancel)
			movements.POST("/:id/comments", h.approvals.AddComment)
			movements.GET("/:id/history", h.approvals.History)
			movements.GET("/:id/activity", h.activity.ListByMovement)
		}

		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/overview", h.dashboard.Overview)
			dashboard.GET("/balances", h.dashboard.Balances)
			dashboard.GET("/expense-breakdown", h.dashboard.ExpenseBreakdown)
			dashboard.GET("/income-vs-expense", h.dashboard.IncomeVsExpense)
			dashboard.GET("/expenses-by-area", h.dashboard.ExpensesByArea)
			dashboard.GET("/personal-funds", h.dashboard.PersonalFunds)
		}

		areas := v1.Group("/areas")
		{
			areas.POST("", h.org.CreateArea)
			areas.GET("", h.org.ListAreas)
			areas.DELETE("/:id", h.org.DeleteArea)
		}

		departments := v1.Group("/departments")
		{
			departments.POST("", h.org.CreateDepartment)
			departments.GET("", h.org.ListDepartments)
			departments.DELETE("/:id", h.org.DeleteDepartment)
		}

		bankAccounts := v1.Group("/bank-accounts")
		{
			bankAccounts.POST("", h.org.CreateBankAccount)
			bankAccounts.GET("", h.org.ListBankAccounts)
			bankAccounts.DELETE("/:id", h.org.DeleteBankAccount)
		}
	}
}
