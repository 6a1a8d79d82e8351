package http

import (
	"time"

	"github.com/kanemolly/campus-resource-hub/internal/pkg/request"
	"github.com/kanemolly/campus-resource-hub/internal/resource"
)

type ListResourcesRequest struct {
	request.ListParams
	ResourceType  string `form:"resource_type" binding:"omitempty,oneof=room equipment lab service"`
	Location      string `form:"location" binding:"omitempty,max=200"`
	Search        string `form:"q" binding:"omitempty,max=200"`
	AvailableOnly bool   `form:"available_only"`
}

type ResourceResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description"`
	Location         string    `json:"location"`
	ResourceType     string    `json:"resource_type"`
	Capacity         *int      `json:"capacity"`
	IsAvailable      bool      `json:"is_available"`
	RequiresApproval bool      `json:"requires_approval"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func NewResponse(r *resource.Resource) ResourceResponse {
	return ResourceResponse{
		ID:               r.ID,
		Name:             r.Name,
		Description:      r.Description,
		Location:         r.Location,
		ResourceType:     r.ResourceType,
		Capacity:         r.Capacity,
		IsAvailable:      r.IsAvailable,
		RequiresApproval: r.RequiresApproval,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type CreateRequest struct {
	Name             string `json:"name" binding:"required,max=200"`
	Description      string `json:"description" binding:"omitempty,max=2000"`
	Location         string `json:"location" binding:"required,max=200"`
	ResourceType     string `json:"resource_type" binding:"required,oneof=room equipment lab service"`
	Capacity         *int   `json:"capacity" binding:"omitempty,min=1"`
	RequiresApproval bool   `json:"requires_approval"`
}

type UpdateRequest struct {
	Name             *string `json:"name" binding:"omitempty,max=200"`
	Description      *string `json:"description" binding:"omitempty,max=2000"`
	Location         *string `json:"location" binding:"omitempty,max=200"`
	Capacity         *int    `json:"capacity" binding:"omitempty,min=1"`
	IsAvailable      *bool   `json:"is_available"`
	RequiresApproval *bool   `json:"requires_approval"`
}
