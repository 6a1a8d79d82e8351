package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kanemolly/campus-resource-hub/internal/auth"
	"github.com/kanemolly/campus-resource-hub/internal/pkg/request"
	"github.com/kanemolly/campus-resource-hub/internal/pkg/response"
	"github.com/kanemolly/campus-resource-hub/internal/pkg/validation"
	"github.com/kanemolly/campus-resource-hub/internal/resource"
)

type Handler struct {
	service resource.Service
}

func NewHandler(service resource.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListResourcesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", validation.Messages(err))
		return
	}
	req.Normalize()

	filter := resource.Filter{
		ResourceType:  req.ResourceType,
		Location:      req.Location,
		AvailableOnly: req.AvailableOnly,
		Search:        req.Search,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}

	resources, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ResourceResponse, len(resources))
	for i, r := range resources {
		items[i] = NewResponse(r)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", validation.Messages(err))
		return
	}

	res, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewResponse(res))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", validation.Messages(err))
		return
	}

	res, err := h.service.Create(c.Request.Context(), resource.CreateRequest{
		Name:             body.Name,
		Description:      body.Description,
		Location:         body.Location,
		ResourceType:     body.ResourceType,
		Capacity:         body.Capacity,
		RequiresApproval: body.RequiresApproval,
		CreatedBy:        auth.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewResponse(res))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", validation.Messages(err))
		return
	}

	var body UpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", validation.Messages(err))
		return
	}

	res, err := h.service.Update(c.Request.Context(), uri.ID, resource.UpdateRequest{
		Name:             body.Name,
		Description:      body.Description,
		Location:         body.Location,
		Capacity:         body.Capacity,
		IsAvailable:      body.IsAvailable,
		RequiresApproval: body.RequiresApproval,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewResponse(res))
}
