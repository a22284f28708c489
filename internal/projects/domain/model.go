package domain

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("project not found")

// Visibility classifies who may read a project's documentation.
type Visibility int

const (
	VisibilityPublic     Visibility = 10
	VisibilityAuthorized Visibility = 20
	VisibilityPrivate    Visibility = 30
)

const (
	StatusActive   = 10
	StatusDisabled = 20
)

// Project is an API-documentation project. The visibility tier and the
// creator reference are the inputs to every read/action check; a
// project always has exactly one creator.
type Project struct {
	ID         int64      `json:"-"`
	PublicID   string     `json:"public_id"`
	Title      string     `json:"title"`
	Remark     string     `json:"remark,omitempty"`
	Visibility Visibility `json:"visibility"`
	Status     int        `json:"status"`
	Sort       int        `json:"sort"`
	CreatorID  string     `json:"creator_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (p *Project) IsPublic() bool {
	return p.Visibility == VisibilityPublic
}

func (p *Project) IsPrivate() bool {
	return p.Visibility == VisibilityPrivate
}

func (p *Project) IsCreator(accountID string) bool {
	return accountID != "" && p.CreatorID == accountID
}
