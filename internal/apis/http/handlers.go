package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apidomain "github.com/apidoc-hub/apidoc-backend/internal/apis/domain"
	"github.com/apidoc-hub/apidoc-backend/internal/apis/repository"
	"github.com/apidoc-hub/apidoc-backend/internal/authz"
	"github.com/apidoc-hub/apidoc-backend/internal/exports"
	"github.com/apidoc-hub/apidoc-backend/internal/identity"
	projectdomain "github.com/apidoc-hub/apidoc-backend/internal/projects/domain"
	projectrepo "github.com/apidoc-hub/apidoc-backend/internal/projects/repository"
)

// Handler serves the gated API read paths: show, debug console and
// offline-doc export.
type Handler struct {
	apis           *repository.APIRepository
	projects       *projectrepo.ProjectRepository
	authz          *authz.Service
	throttle       *exports.Throttle
	audit          *exports.AuditLog
	exportInterval time.Duration
}

func NewHandler(
	apis *repository.APIRepository,
	projects *projectrepo.ProjectRepository,
	authzSvc *authz.Service,
	throttle *exports.Throttle,
	audit *exports.AuditLog,
	exportInterval time.Duration,
) *Handler {
	return &Handler{
		apis:           apis,
		projects:       projects,
		authz:          authzSvc,
		throttle:       throttle,
		audit:          audit,
		exportInterval: exportInterval,
	}
}

// Register wires the API routes. The group is expected to carry the
// optional-identity middleware; requireUser additionally guards the
// export route, debugLimit throttles the debug console per client.
func (h *Handler) Register(rg *gin.RouterGroup, requireUser, debugLimit gin.HandlerFunc) {
	rg.GET("/:public_id", h.show)
	rg.GET("/:public_id/debug", debugLimit, h.debug)
	rg.GET("/:public_id/export", requireUser, h.export)
}

func (h *Handler) show(c *gin.Context) {
	detail, project, ok := h.loadReadable(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "api": detail, "project": project})
}

func (h *Handler) debug(c *gin.Context) {
	detail, project, ok := h.loadReadable(c)
	if !ok {
		return
	}

	// The console only needs the request shape; execution happens
	// client-side against the documented URI.
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"project": gin.H{"public_id": project.PublicID, "title": project.Title},
		"request": gin.H{
			"method": detail.API.Method,
			"uri":    detail.API.URI,
			"title":  detail.API.Title,
			"module": detail.Module.Title,
		},
	})
}

func (h *Handler) export(c *gin.Context) {
	actor, ok := identity.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "login required"})
		return
	}

	detail, project, ok := h.load(c)
	if !ok {
		return
	}

	allowed, err := h.authz.HasAuth(c.Request.Context(), project, authz.ResourceAPI, authz.ActionExport, actor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "authorization check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "no export permission"})
		return
	}

	err = h.throttle.CheckAndReserve(c.Request.Context(), detail.API.PublicID, actor.AccountID, h.exportInterval)
	if err != nil {
		var limited *exports.RateLimitedError
		if errors.As(err, &limited) {
			retry := int64(limited.RetryAfter / time.Second)
			c.Header("Retry-After", fmt.Sprintf("%d", retry))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"ok":          false,
				"error":       "export rate limited",
				"retry_after": retry,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "export throttle unavailable"})
		return
	}

	if _, err := h.audit.Record(c.Request.Context(), detail.API.PublicID, actor.AccountID); err != nil {
		log.Printf("[error] operation=export_audit api=%s error=%v", detail.API.PublicID, err)
	}

	doc, err := json.MarshalIndent(gin.H{
		"project": gin.H{"public_id": project.PublicID, "title": project.Title},
		"module":  detail.Module,
		"api":     detail.API,
	}, "", "  ")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "build document"})
		return
	}

	fileName := fmt.Sprintf("[%s]%s-offline.json", detail.Module.Title, detail.API.Title)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/json", doc)
}

// load resolves the API and its project, writing the 404 itself.
func (h *Handler) load(c *gin.Context) (*apidomain.Detail, *projectdomain.Project, bool) {
	publicID := c.Param("public_id")

	detail, err := h.apis.FindByPublicID(c.Request.Context(), publicID)
	if err != nil {
		if errors.Is(err, apidomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "api not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "lookup failed"})
		}
		return nil, nil, false
	}

	project, err := h.projects.FindByID(c.Request.Context(), detail.ProjectID)
	if err != nil {
		if errors.Is(err, projectdomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "lookup failed"})
		}
		return nil, nil, false
	}

	return detail, project, true
}

// loadReadable additionally applies the visibility policy for the
// current viewer, answering 401 with a login callback target for
// anonymous viewers of private projects and 403 for denied members.
func (h *Handler) loadReadable(c *gin.Context) (*apidomain.Detail, *projectdomain.Project, bool) {
	detail, project, ok := h.load(c)
	if !ok {
		return nil, nil, false
	}

	var viewer *identity.Actor
	if actor, ok := identity.CurrentActor(c); ok {
		viewer = &actor
	}

	decision, err := h.authz.CanRead(c.Request.Context(), project, viewer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "authorization check failed"})
		return nil, nil, false
	}

	switch decision {
	case authz.DecisionAllowed:
		return detail, project, true
	case authz.DecisionLoginRequired:
		c.JSON(http.StatusUnauthorized, gin.H{
			"ok":       false,
			"error":    "login required",
			"callback": c.Request.URL.RequestURI(),
		})
		return nil, nil, false
	default:
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "no permission to view"})
		return nil, nil, false
	}
}
