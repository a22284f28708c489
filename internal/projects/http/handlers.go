package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apirepo "github.com/apidoc-hub/apidoc-backend/internal/apis/repository"
	"github.com/apidoc-hub/apidoc-backend/internal/authz"
	"github.com/apidoc-hub/apidoc-backend/internal/identity"
	"github.com/apidoc-hub/apidoc-backend/internal/projects/domain"
	"github.com/apidoc-hub/apidoc-backend/internal/projects/repository"
)

type Handler struct {
	projects *repository.ProjectRepository
	apis     *apirepo.APIRepository
	authz    *authz.Service
}

func NewHandler(projects *repository.ProjectRepository, apis *apirepo.APIRepository, authzSvc *authz.Service) *Handler {
	return &Handler{projects: projects, apis: apis, authz: authzSvc}
}

// Register wires the project routes. The group carries the
// optional-identity middleware; requireUser guards the write/list
// paths.
func (h *Handler) Register(rg *gin.RouterGroup, requireUser gin.HandlerFunc) {
	rg.GET("/:public_id", h.show)
	rg.POST("", requireUser, h.create)
	rg.GET("", requireUser, h.list)
}

func (h *Handler) show(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	var viewer *identity.Actor
	if actor, ok := identity.CurrentActor(c); ok {
		viewer = &actor
	}

	decision, err := h.authz.CanRead(c.Request.Context(), project, viewer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "authorization check failed"})
		return
	}

	switch decision {
	case authz.DecisionAllowed:
	case authz.DecisionLoginRequired:
		c.JSON(http.StatusUnauthorized, gin.H{
			"ok":       false,
			"error":    "login required",
			"callback": c.Request.URL.RequestURI(),
		})
		return
	default:
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "no permission to view"})
		return
	}

	modules, err := h.apis.ListModules(c.Request.Context(), project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "list modules failed"})
		return
	}

	// Doc tree: every active module with its active APIs.
	tree := make([]gin.H, 0, len(modules))
	for _, module := range modules {
		apis, err := h.apis.ListByModule(c.Request.Context(), module.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "list apis failed"})
			return
		}
		tree = append(tree, gin.H{"module": module, "apis": apis})
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": project, "modules": tree})
}

type createReq struct {
	Title      string `json:"title"`
	Remark     string `json:"remark"`
	Visibility int    `json:"visibility"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	visibility := domain.Visibility(req.Visibility)
	switch visibility {
	case 0:
		visibility = domain.VisibilityPrivate
	case domain.VisibilityPublic, domain.VisibilityPrivate:
	default:
		// The authorized tier exists in storage but is not offered.
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid visibility"})
		return
	}

	actor, _ := identity.CurrentActor(c)
	p, err := h.projects.Create(c.Request.Context(), actor.AccountID,
		strings.TrimSpace(req.Title), strings.TrimSpace(req.Remark), visibility)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	actor, _ := identity.CurrentActor(c)

	created, err := h.projects.ListByCreator(c.Request.Context(), actor.AccountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	joined, err := h.projects.Search(c.Request.Context(), repository.SearchFilter{
		MemberAccountID: actor.AccountID,
		Status:          domain.StatusActive,
		Title:           strings.TrimSpace(c.Query("q")),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "created": created, "joined": joined})
}

func (h *Handler) loadProject(c *gin.Context) (*domain.Project, bool) {
	project, err := h.projects.FindByPublicID(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "lookup failed"})
		}
		return nil, false
	}
	return project, true
}
