package bootstrap

import (
	"database/sql"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/apidoc-hub/apidoc-backend/internal/accounts"
	httpapi "github.com/apidoc-hub/apidoc-backend/internal/api/http"
	"github.com/apidoc-hub/apidoc-backend/internal/api/http/middleware"
	apihttp "github.com/apidoc-hub/apidoc-backend/internal/apis/http"
	apirepo "github.com/apidoc-hub/apidoc-backend/internal/apis/repository"
	"github.com/apidoc-hub/apidoc-backend/internal/authz"
	"github.com/apidoc-hub/apidoc-backend/internal/exports"
	"github.com/apidoc-hub/apidoc-backend/internal/identity"
	memberhttp "github.com/apidoc-hub/apidoc-backend/internal/members/http"
	memberrepo "github.com/apidoc-hub/apidoc-backend/internal/members/repository"
	projecthttp "github.com/apidoc-hub/apidoc-backend/internal/projects/http"
	projectrepo "github.com/apidoc-hub/apidoc-backend/internal/projects/repository"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	Pool           *pgxpool.Pool
	SQL            *sql.DB
	Redis          *redis.Client
	Auth           *fbauth.Client
	ExportInterval time.Duration
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.Default())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Pool, dep.Redis)
	healthHandler.RegisterRoutes(r)

	accountRepo := accounts.NewRepo(dep.Pool)
	projectRepo := projectrepo.NewProjectRepository(dep.SQL)
	memberRepo := memberrepo.NewMemberRepository(dep.SQL)
	apiRepo := apirepo.NewAPIRepository(dep.SQL)

	authzSvc := authz.NewService(memberRepo)
	throttle := exports.NewThrottle(dep.Redis)
	audit := exports.NewAuditLog(dep.SQL)

	requireUser := identity.RequireUser(dep.Auth, accountRepo)
	optionalUser := identity.OptionalUser(dep.Auth, accountRepo)
	debugLimit := middleware.ClientRateLimit(rate.Limit(1), 5)

	api := r.Group("/api/v1")
	api.Use(optionalUser)

	projectsGroup := api.Group("/projects")
	projecthttp.NewHandler(projectRepo, apiRepo, authzSvc).Register(projectsGroup, requireUser)

	membersGroup := api.Group("/projects")
	membersGroup.Use(requireUser)
	memberhttp.NewHandler(memberRepo, projectRepo, accountRepo, authzSvc).Register(membersGroup)

	apisGroup := api.Group("/apis")
	apihttp.NewHandler(apiRepo, projectRepo, authzSvc, throttle, audit, dep.ExportInterval).
		Register(apisGroup, requireUser, debugLimit)

	return r
}
