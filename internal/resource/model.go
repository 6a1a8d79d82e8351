package resource

import (
	"net/http"
	"time"

	"github.com/kanemolly/campus-resource-hub/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.New(http.StatusNotFound, "resource not found")
	ErrEmptyName           = apperror.New(http.StatusBadRequest, "name cannot be empty")
	ErrEmptyLocation       = apperror.New(http.StatusBadRequest, "location cannot be empty")
	ErrInvalidResourceType = apperror.New(http.StatusBadRequest, "invalid resource_type")
	ErrInvalidCapacity     = apperror.New(http.StatusBadRequest, "capacity must be positive")
	ErrNothingToUpdate     = apperror.New(http.StatusBadRequest, "no fields to update")
)

// Resource types a campus asset can have.
const (
	TypeRoom      = "room"
	TypeEquipment = "equipment"
	TypeLab       = "lab"
	TypeService   = "service"
)

var ValidResourceTypes = []string{TypeRoom, TypeEquipment, TypeLab, TypeService}

// Resource represents a bookable campus asset (e.g., Study Room 2B, Projector 4).
type Resource struct {
	ID               string
	Name             string
	Description      *string
	Location         string
	ResourceType     string
	Capacity         *int
	IsAvailable      bool
	RequiresApproval bool // bookings start pending until staff confirm them
	CreatedBy        *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Filter defines parameters for listing resources.
type Filter struct {
	ResourceType  string
	Location      string
	AvailableOnly bool
	Search        string
	Page          int
	PageSize      int
}
