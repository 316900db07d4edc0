package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/controllers"
	"github.com/kendall-kelly/edu-brokerage-api/middleware"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
)

// SetupRouter builds the HTTP surface. auth validates the bearer token and
// populates the subject; it is injected so tests can swap the validator.
func SetupRouter(cfg *config.Config, auth gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", controllers.IdempotencyKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")
	{
		api.GET("/health", healthCheck)
		api.GET("/database/status", databaseStatus)

		api.GET("/services", controllers.ListServices)
		api.GET("/reviews", controllers.ListReviews)
	}

	authed := api.Group("", auth)
	authed.POST("/users/me", controllers.CreateUser)

	user := authed.Group("", middleware.LoadUser())
	{
		user.GET("/users/me", controllers.GetMyProfile)
		user.PUT("/users/me", controllers.UpdateMyProfile)

		user.POST("/orders", middleware.RequireRole(workflow.RoleUser), controllers.CreateOrder)
		user.GET("/orders", controllers.ListOrders)
		user.PUT("/orders", controllers.PatchOrder)
		user.GET("/orders/:id", controllers.GetOrder)
		user.PATCH("/orders/:id/status", controllers.UpdateOrderStatus)
		user.POST("/orders/:id/claim", controllers.ClaimOrder)
		user.POST("/orders/:id/release", controllers.ReleaseOrder)
		user.POST("/orders/:id/assign-delegate", controllers.AssignDelegate)

		user.POST("/orders/:id/data-requests", controllers.OpenDataRequest)
		user.GET("/orders/:id/data-requests", controllers.ListDataRequests)
		user.POST("/orders/:id/data-requests/reply", controllers.ReplyToDataRequest)
		user.POST("/orders/:id/data-requests/:requestId/respond", controllers.RespondToDataRequest)
		user.POST("/orders/:id/data-requests/:requestId/close", controllers.CloseDataRequest)

		user.POST("/orders/:id/cancellation-request", controllers.RequestCancellation)
		user.POST("/orders/:id/respond-to-cancellation", controllers.RespondToCancellation)
		user.POST("/orders/:id/review", controllers.CreateReview)

		user.GET("/files/:fileId", controllers.GetFile)
		user.POST("/contracts", middleware.RequireRole(workflow.RoleUser), controllers.UploadContracts)
		user.GET("/simple-contracts/:id", controllers.GetOrderContracts)

		user.GET("/notifications", controllers.ListNotifications)
		user.PATCH("/notifications/:id", controllers.UpdateNotification)
	}

	admin := user.Group("/admin", middleware.RequireRole(workflow.RoleAdmin))
	{
		admin.GET("/services", controllers.AdminListServices)
		admin.POST("/services", controllers.CreateService)
		admin.PUT("/services/:id", controllers.UpdateService)
		admin.DELETE("/services/:id", controllers.DeleteService)

		for _, role := range []workflow.Role{workflow.RoleSupervisor, workflow.RoleDelegate} {
			staff := admin.Group("/" + string(role) + "s")
			staff.GET("", controllers.ListStaff(role))
			staff.POST("", controllers.CreateStaff(role))
			staff.GET("/:id", controllers.GetStaff(role))
			staff.PUT("/:id", controllers.UpdateStaff(role))
			staff.DELETE("/:id", controllers.DeactivateStaff(role))
		}

		admin.GET("/data-requests", controllers.AdminListDataRequests)
		admin.PATCH("/data-requests/:id", controllers.AdminUpdateDataRequest)
		admin.DELETE("/data-requests/:id", controllers.AdminDeleteDataRequest)

		admin.PATCH("/reviews/:id", controllers.AdminUpdateReview)
		admin.POST("/orders/bulk-assign", controllers.BulkAssignOrders)
	}

	return router
}
