package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/eduboost-api/internal/handler"
	"github.com/noah-isme/eduboost-api/internal/middleware"
	"github.com/noah-isme/eduboost-api/internal/models"
	"github.com/noah-isme/eduboost-api/internal/service"
	"github.com/noah-isme/eduboost-api/pkg/config"
	"github.com/noah-isme/eduboost-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/eduboost-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/eduboost-api/pkg/middleware/requestid"
)

// ContentDownloadRoute is the public route serving signed content downloads, relative to the API prefix.
const ContentDownloadRoute = "/content/download"

// ReadinessCheck reports whether a backing dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	Auth           *handler.AuthHandler
	Registration   *handler.RegistrationHandler
	Enrollments    *handler.EnrollmentHandler
	Users          *handler.UserHandler
	Students       *handler.StudentHandler
	MentorRequests *handler.MentorRequestHandler
	Classes        *handler.ClassHandler
	Content        *handler.ContentHandler
	Announcements  *handler.AnnouncementHandler
	Dashboard      *handler.DashboardHandler
	Metrics        *handler.MetricsHandler

	Tokens         middleware.TokenValidator
	Access         middleware.AccessChecker
	AuditWriter    middleware.AuditWriter
	MetricsService *service.MetricsService
	Readiness      map[string]ReadinessCheck
	Logger         *zap.Logger
}

// New builds the gin engine with every route registered.
func New(cfg *config.Config, deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes + (1 << 20)
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.MetricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", readiness(deps.Readiness))
	if deps.Metrics != nil {
		r.GET("/metrics", deps.Metrics.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(apiPrefix(cfg.APIPrefix))
	register(api, cfg, deps)
	return r
}

func register(api *gin.RouterGroup, cfg *config.Config, deps Dependencies) {
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.AuditWriter, deps.Logger, action, resource)
	}
	admin := middleware.RequireStaff()
	mentor := middleware.RequireRoles(models.RoleMentor)
	student := middleware.RequireRoles(models.RoleStudent)
	staffOrMentor := middleware.RequireRoles(models.RoleAdmin, models.RoleMentor)
	gate := middleware.EnrollmentGate(deps.Access)

	// Public
	api.POST("/auth/login", deps.Auth.Login)
	api.POST("/auth/refresh", deps.Auth.Refresh)
	api.POST("/auth/signup", deps.Registration.Signup)
	api.GET("/registration", deps.Registration.WindowStatus)
	api.GET(ContentDownloadRoute, deps.Content.Download)
	api.GET("/mentors", middleware.OptionalJWT(deps.Tokens), deps.Users.Mentors)

	authed := api.Group("", middleware.JWT(deps.Tokens))

	authed.POST("/auth/logout", deps.Auth.Logout)
	authed.POST("/auth/change-password", deps.Auth.ChangePassword)
	authed.GET("/auth/me", deps.Auth.Me)
	authed.GET("/announcements", deps.Announcements.List)

	// Students
	authed.GET("/students/me", student, deps.Students.Profile)
	authed.PUT("/students/me", student, deps.Students.UpdateProfile)
	authed.GET("/enrollments/me", student, deps.Enrollments.Mine)
	authed.GET("/enrollments/payment-info", student, deps.Enrollments.PaymentInfo)
	authed.GET("/classes/student", student, gate, deps.Classes.ListForStudent)
	authed.GET("/content/student", student, gate, deps.Content.ListForStudent)
	authed.GET("/content/subjects", student, gate, deps.Content.Subjects)
	authed.POST("/mentor-requests", student, gate, deps.MentorRequests.Create)

	// Shared; services scope results to the caller
	authed.GET("/mentor-requests", deps.MentorRequests.List)
	authed.GET("/mentor-requests/:id/attachment", deps.MentorRequests.Attachment)
	authed.GET("/content/:id/download-link", gate, deps.Content.DownloadLink)

	// Mentors
	authed.PUT("/mentors/me", mentor, deps.Users.UpdateMentorProfile)
	authed.POST("/classes", mentor, audit(models.AuditActionClassCreate, "class"), deps.Classes.Create)
	authed.GET("/classes/mine", mentor, deps.Classes.ListMine)
	authed.DELETE("/classes/:id", mentor, audit(models.AuditActionClassDelete, "class"), deps.Classes.Delete)
	authed.POST("/content", mentor, audit(models.AuditActionContentCreate, "content"), deps.Content.Create)
	authed.GET("/content/mine", mentor, deps.Content.ListMine)
	authed.DELETE("/content/:id", staffOrMentor, audit(models.AuditActionContentDelete, "content"), deps.Content.Delete)
	authed.PUT("/mentor-requests/:id/status", staffOrMentor, audit(models.AuditActionRequestStatus, "mentor_request"), deps.MentorRequests.UpdateStatus)

	// Administrators
	adm := authed.Group("", admin)
	adm.PUT("/registration", deps.Registration.UpdateWindow)

	adm.GET("/enrollments", deps.Enrollments.List)
	adm.GET("/enrollments/export", audit(models.AuditActionLedgerExport, "enrollment"), deps.Enrollments.Export)
	adm.POST("/enrollments/:id/top-up", deps.Enrollments.TopUp)
	adm.GET("/enrollments/sweeps", deps.Enrollments.ListSweeps)
	adm.POST("/enrollments/sweeps", audit(models.AuditActionSweepTrigger, "enrollment_sweep"), deps.Enrollments.TriggerSweep)

	adm.GET("/users", deps.Users.List)
	adm.GET("/users/:id", deps.Users.Get)
	adm.POST("/users", deps.Users.Create)
	adm.PUT("/users/:id", deps.Users.Update)
	adm.DELETE("/users/:id", deps.Users.Delete)

	adm.GET("/students", deps.Students.List)
	adm.GET("/students/:id", deps.Students.Get)
	adm.PUT("/students/:id/active", deps.Students.SetActive)

	adm.GET("/classes", deps.Classes.ListUpcoming)
	adm.GET("/mentor-requests/stats", deps.MentorRequests.Stats)
	adm.POST("/announcements", audit(models.AuditActionAnnouncementCreate, "announcement"), deps.Announcements.Create)

	if cfg.Dashboard.Enabled {
		adm.GET("/dashboard", deps.Dashboard.Admin)
	}
	adm.GET("/metrics/system", deps.Metrics.System)
}

func readiness(checks map[string]ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		state := "ready"
		if status != http.StatusOK {
			state = "unavailable"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	}
}

// APIPath joins the configured prefix with a route.
func APIPath(prefix, route string) string {
	return apiPrefix(prefix) + route
}

func apiPrefix(prefix string) string {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}
