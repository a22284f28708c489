// Package authz holds the visibility policy and the authorization
// engine: the two pure decision points every protected request passes
// through before any domain operation runs.
package authz

import (
	"context"

	"github.com/apidoc-hub/apidoc-backend/internal/identity"
	memberdomain "github.com/apidoc-hub/apidoc-backend/internal/members/domain"
	projectdomain "github.com/apidoc-hub/apidoc-backend/internal/projects/domain"
)

// Resource types and actions used across handlers. Rules match on the
// exact pair: granting "edit" does not imply "look".
const (
	ResourceProject = "project"
	ResourceAPI     = "api"

	ActionLook   = "look"
	ActionEdit   = "edit"
	ActionExport = "export"
)

// Decision is the outcome of a read check. LoginRequired and Forbidden
// are distinct so callers can redirect anonymous viewers to a login
// flow instead of rendering an access-denied page.
type Decision int

const (
	DecisionAllowed Decision = iota
	DecisionLoginRequired
	DecisionForbidden
)

// MemberStore is the membership lookup the engine needs. A nil member
// with a nil error means "no membership".
type MemberStore interface {
	Find(ctx context.Context, projectID int64, accountID string) (*memberdomain.Member, error)
}

type Service struct {
	members MemberStore
}

func NewService(members MemberStore) *Service {
	return &Service{members: members}
}

// HasAuth decides whether the actor may perform the named action on
// the named resource type within the project. Evaluated in strict
// order: admin override, creator override, then the member's explicit
// rule grants. A storage failure denies access and surfaces the error.
func (s *Service) HasAuth(ctx context.Context, project *projectdomain.Project, resourceType, action string, actor identity.Actor) (bool, error) {
	if actor.Admin {
		return true, nil
	}

	if project.IsCreator(actor.AccountID) {
		return true, nil
	}

	member, err := s.members.Find(ctx, project.ID, actor.AccountID)
	if err != nil {
		return false, err
	}
	if member == nil {
		return false, nil
	}

	return member.HasRule(resourceType, action), nil
}

// CanRead is the coarse read gate over the project's visibility tier.
// viewer is nil for anonymous requests.
func (s *Service) CanRead(ctx context.Context, project *projectdomain.Project, viewer *identity.Actor) (Decision, error) {
	switch project.Visibility {
	case projectdomain.VisibilityPublic:
		return DecisionAllowed, nil

	case projectdomain.VisibilityAuthorized:
		// Disabled tier upstream: when present, plain membership
		// suffices — no explicit rule needed.
		if viewer == nil {
			return DecisionLoginRequired, nil
		}
		if viewer.Admin || project.IsCreator(viewer.AccountID) {
			return DecisionAllowed, nil
		}
		member, err := s.members.Find(ctx, project.ID, viewer.AccountID)
		if err != nil {
			return DecisionForbidden, err
		}
		if member != nil {
			return DecisionAllowed, nil
		}
		return DecisionForbidden, nil

	default: // private
		if viewer == nil {
			return DecisionLoginRequired, nil
		}
		ok, err := s.HasAuth(ctx, project, ResourceProject, ActionLook, *viewer)
		if err != nil {
			return DecisionForbidden, err
		}
		if ok {
			return DecisionAllowed, nil
		}
		return DecisionForbidden, nil
	}
}
