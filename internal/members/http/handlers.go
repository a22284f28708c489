package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/apidoc-hub/apidoc-backend/internal/accounts"
	"github.com/apidoc-hub/apidoc-backend/internal/authz"
	"github.com/apidoc-hub/apidoc-backend/internal/identity"
	"github.com/apidoc-hub/apidoc-backend/internal/members/domain"
	"github.com/apidoc-hub/apidoc-backend/internal/members/repository"
	projectdomain "github.com/apidoc-hub/apidoc-backend/internal/projects/domain"
	projectrepo "github.com/apidoc-hub/apidoc-backend/internal/projects/repository"
)

// Handler serves the membership management surface: invitation
// candidates, joins and rule grants.
type Handler struct {
	members  *repository.MemberRepository
	projects *projectrepo.ProjectRepository
	accounts *accounts.Repo
	authz    *authz.Service
}

func NewHandler(members *repository.MemberRepository, projects *projectrepo.ProjectRepository, accountRepo *accounts.Repo, authzSvc *authz.Service) *Handler {
	return &Handler{members: members, projects: projects, accounts: accountRepo, authz: authzSvc}
}

// Register wires the member routes under the projects group. All of
// them require an authenticated actor.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/:public_id/members/candidates", h.candidates)
	rg.POST("/:public_id/members", h.add)
	rg.POST("/:public_id/members/:member_id/rules", h.grant)
	rg.DELETE("/:public_id/members/:member_id/rules", h.revoke)
	rg.GET("/:public_id/rules", h.myRules)
}

func (h *Handler) candidates(c *gin.Context) {
	project, _, ok := h.loadManaged(c)
	if !ok {
		return
	}

	list, err := h.members.ListNonMembers(c.Request.Context(), project.ID, project.CreatorID,
		strings.TrimSpace(c.Query("q")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "candidates": list})
}

type addReq struct {
	AccountID string `json:"account_id"`
}

func (h *Handler) add(c *gin.Context) {
	project, _, ok := h.loadManaged(c)
	if !ok {
		return
	}

	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.AccountID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	acct, err := h.accounts.FindByID(c.Request.Context(), req.AccountID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "no such account"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "lookup failed"})
		}
		return
	}
	if !acct.Active {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "account disabled"})
		return
	}

	member, err := h.members.Add(c.Request.Context(), project.ID, req.AccountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "member": member})
}

type ruleReq struct {
	ResourceType string `json:"resource_type"`
	Action       string `json:"action"`
}

func (r *ruleReq) rule() (domain.Rule, bool) {
	rt := strings.TrimSpace(r.ResourceType)
	ac := strings.TrimSpace(r.Action)
	if rt == "" || ac == "" {
		return domain.Rule{}, false
	}
	return domain.Rule{ResourceType: rt, Action: ac}, true
}

func (h *Handler) grant(c *gin.Context) {
	_, _, ok := h.loadManaged(c)
	if !ok {
		return
	}

	var req ruleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	rule, ok := req.rule()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "resource_type and action required"})
		return
	}

	if err := h.members.Grant(c.Request.Context(), c.Param("member_id"), rule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) revoke(c *gin.Context) {
	_, _, ok := h.loadManaged(c)
	if !ok {
		return
	}

	var req ruleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	rule, ok := req.rule()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "resource_type and action required"})
		return
	}

	if err := h.members.Revoke(c.Request.Context(), c.Param("member_id"), rule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// myRules returns the caller's own grants for a project, for the UI to
// hide actions it would deny anyway.
func (h *Handler) myRules(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	actor, ok := identity.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "login required"})
		return
	}

	rules, err := h.members.Rules(c.Request.Context(), project.ID, actor.AccountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	out := make([]domain.Rule, 0, len(rules))
	for rule := range rules {
		out = append(out, rule)
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"is_creator": project.IsCreator(actor.AccountID),
		"rules":      out,
	})
}

// loadManaged resolves the project and requires the edit grant on it.
func (h *Handler) loadManaged(c *gin.Context) (*projectdomain.Project, identity.Actor, bool) {
	project, ok := h.loadProject(c)
	if !ok {
		return nil, identity.Actor{}, false
	}

	actor, ok := identity.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "login required"})
		return nil, identity.Actor{}, false
	}

	allowed, err := h.authz.HasAuth(c.Request.Context(), project, authz.ResourceProject, authz.ActionEdit, actor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "authorization check failed"})
		return nil, identity.Actor{}, false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "no permission to manage members"})
		return nil, identity.Actor{}, false
	}

	return project, actor, true
}

func (h *Handler) loadProject(c *gin.Context) (*projectdomain.Project, bool) {
	project, err := h.projects.FindByPublicID(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		if errors.Is(err, projectdomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "lookup failed"})
		}
		return nil, false
	}
	return project, true
}
