package handler

import (
	"net/http"

	"github.com/blues/antugrow/internal/geo"
	"github.com/gin-gonic/gin"
)

type GeoHandler struct{}

func NewGeoHandler() *GeoHandler {
	return &GeoHandler{}
}

// Area 计算边界面积，少于三个点时为 0
func (h *GeoHandler) Area(c *gin.Context) {
	var req AreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	acres := geo.Acres(req.Points)
	SuccessResponse(c, http.StatusOK, "", AreaResponse{
		Acres:        acres,
		Label:        geo.FormatAcres(acres),
		SquareMeters: geo.SquareMeters(req.Points),
		Points:       len(req.Points),
	})
}
