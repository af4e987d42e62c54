package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coachmybody/server/config"
	"github.com/coachmybody/server/controllers"
	"github.com/coachmybody/server/middleware"
	"github.com/coachmybody/server/services"
	"github.com/coachmybody/server/utils"
)

// Services bundles what the handlers depend on.
type Services struct {
	Users     *services.UserService
	Routines  *services.RoutineService
	Records   *services.RecordService
	Exercises *services.ExerciseService
	States    *utils.StateStore
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, svc Services) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.Metrics())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	userController := controllers.NewUserController(svc.Users, svc.Routines)
	oauthController := controllers.NewOAuthController(svc.Users, svc.States, cfg)
	routineController := controllers.NewRoutineController(svc.Routines)
	recordController := controllers.NewRecordController(svc.Records)
	exerciseController := controllers.NewExerciseController(svc.Exercises)
	authRequired := middleware.AuthRequired(svc.Users)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.NewRateLimiter(cfg.RateLimitPerMinute).Middleware())
	authGroup.POST("/register", userController.Register)
	authGroup.POST("/login", userController.Login)
	authGroup.POST("/refresh", userController.Refresh)
	authGroup.GET("/token/validity", userController.TokenValidity)
	authGroup.GET("/oauth/:provider/login", oauthController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", oauthController.OAuthCallback)

	api.GET("/exercises", exerciseController.List)
	api.GET("/exercises/:id", exerciseController.Get)

	// Routine entry edits are addressed by id alone and take no token.
	api.POST("/routines/:id/exercises", routineController.AddExercises)
	api.PATCH("/routines/:id/title", routineController.UpdateTitle)
	api.DELETE("/routines/exercises", routineController.DeleteExercises)
	api.PATCH("/routines/exercises/order", routineController.UpdateExerciseOrder)
	api.PATCH("/routines/exercises/:id", routineController.UpdateExercise)

	protected := api.Group("")
	protected.Use(authRequired)
	protected.GET("/users", userController.ListUsers)
	protected.GET("/users/me", userController.Me)
	protected.GET("/users/routines", userController.MyRoutines)
	protected.GET("/users/bookmarks", userController.MyBookmarks)
	protected.GET("/users/records", recordController.MyRecords)
	protected.POST("/records", recordController.Create)
	protected.POST("/routines", routineController.Create)
	protected.GET("/routines/:id", routineController.FindByID)
	protected.DELETE("/routines", routineController.Delete)
	protected.POST("/routines/:id/bookmark", routineController.Bookmark)
	protected.DELETE("/routines/bookmark", routineController.DeleteBookmark)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Problem(ctx, http.StatusNotFound, 40400, "NOT_FOUND_ENTITY", "route not found")
	})

	return r
}
