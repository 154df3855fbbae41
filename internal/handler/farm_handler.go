package handler

import (
	"net/http"
	"time"

	"github.com/blues/antugrow/internal/logic"
	"github.com/blues/antugrow/internal/model"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type FarmHandler struct {
	farms    *logic.FarmLogic
	insights *logic.InsightLogic
	analysis *logic.AnalysisLogic
}

func NewFarmHandler(farms *logic.FarmLogic, insights *logic.InsightLogic, analysis *logic.AnalysisLogic) *FarmHandler {
	return &FarmHandler{farms: farms, insights: insights, analysis: analysis}
}

// CreateFarm 新增农场
func (h *FarmHandler) CreateFarm(c *gin.Context) {
	var req logic.CreateFarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.farms.Create(c.Request.Context(), currentSession(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	message := "farm added"
	if !result.Ingested {
		message = "farm added, fetching metadata failed"
	}
	SuccessResponse(c, http.StatusCreated, message, result)
}

// GetFarms 当前农户的农场列表
func (h *FarmHandler) GetFarms(c *gin.Context) {
	farms, err := h.farms.List(c.Request.Context(), currentSession(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", farms)
}

// GetFarm 农场详情
func (h *FarmHandler) GetFarm(c *gin.Context) {
	farm, err := h.farms.Get(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", farm)
}

// DeleteFarm 删除农场
func (h *FarmHandler) DeleteFarm(c *gin.Context) {
	if err := h.farms.Delete(c.Request.Context(), currentSession(c), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "farm deleted", nil)
}

// GetFarmGeoJSON 以 GeoJSON Feature 导出农场边界
func (h *FarmHandler) GetFarmGeoJSON(c *gin.Context) {
	feature, err := h.farms.GeoJSON(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, feature)
}

// GetFarmParameters 植被参数，from/to 为 YYYY-MM-DD，缺省为最近三个月
func (h *FarmHandler) GetFarmParameters(c *gin.Context) {
	from, ok := dateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := dateQuery(c, "to")
	if !ok {
		return
	}

	params, err := h.insights.Parameters(c.Request.Context(), currentSession(c), c.Param("id"), from, to)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", params)
}

// GetFarmAnalysis 农场健康分析
func (h *FarmHandler) GetFarmAnalysis(c *gin.Context) {
	analysis, err := h.analysis.Analyze(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", analysis)
}

// GetStages 农场生长阶段
func (h *FarmHandler) GetStages(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "", model.FarmStages)
}

func dateQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid "+key+" date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}
