package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/blues/antugrow/internal/logic"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	farmers  *logic.FarmerLogic
	insights *logic.InsightLogic
}

func NewProfileHandler(farmers *logic.FarmerLogic, insights *logic.InsightLogic) *ProfileHandler {
	return &ProfileHandler{farmers: farmers, insights: insights}
}

// GetProfile 当前农户档案
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.farmers.Profile(currentSession(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", profile)
}

// UpdateProfile 更新档案
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req logic.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.farmers.UpdateProfile(c.Request.Context(), currentSession(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "profile updated", profile)
}

// GetPrices 作物市场价格；未指定作物时使用当前农户所有农场的作物
func (h *ProfileHandler) GetPrices(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "invalid days")
		return
	}

	var products []string
	if raw := c.Query("products"); raw != "" {
		products = strings.Split(raw, ",")
	}

	if len(products) == 0 && currentSession(c).Farmer != nil {
		prices, err := h.insights.FarmPrices(c.Request.Context(), currentSession(c), days)
		if err != nil {
			HandleError(c, err)
			return
		}
		SuccessResponse(c, http.StatusOK, "", prices)
		return
	}

	prices, err := h.insights.Prices(c.Request.Context(), products, days)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", prices)
}
