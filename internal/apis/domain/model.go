package domain

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("api not found")

const (
	StatusActive   = 10
	StatusDisabled = 20
)

// Module groups the APIs of a project under one version.
type Module struct {
	ID        int64  `json:"-"`
	ProjectID int64  `json:"-"`
	Title     string `json:"title"`
	Version   string `json:"version"`
	Status    int    `json:"status"`
	Sort      int    `json:"sort"`
}

// API is one documented endpoint inside a module.
type API struct {
	ID        int64     `json:"-"`
	PublicID  string    `json:"public_id"`
	ModuleID  int64     `json:"-"`
	Title     string    `json:"title"`
	Method    string    `json:"method"`
	URI       string    `json:"uri"`
	Remark    string    `json:"remark,omitempty"`
	Status    int       `json:"status"`
	Sort      int       `json:"sort"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Detail is an API joined up to its owning module and project, the
// shape every gated read path needs: the project drives the access
// checks, the module names the offline document.
type Detail struct {
	API       API    `json:"api"`
	Module    Module `json:"module"`
	ProjectID int64  `json:"-"`
}
