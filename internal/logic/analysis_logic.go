package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/blues/antugrow/internal/keyed"
	"github.com/blues/antugrow/internal/logger"
	"github.com/blues/antugrow/internal/model"
)

// Completer 大模型补全
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// DiseaseRisk 病害风险
type DiseaseRisk struct {
	Disease     string `json:"disease"`
	Description string `json:"description"`
}

// StageMatch 当前环境与生长阶段的匹配度
type StageMatch struct {
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}

// Analysis 农场健康分析
type Analysis struct {
	FarmHealth            string        `json:"farm_health"`
	PotentialPests        []string      `json:"potential_pests"`
	CropStageMatch        StageMatch    `json:"crop_stage_match"`
	DiseaseRiskAssessment []DiseaseRisk `json:"disease_risk_assessment"`
}

// 贪婪匹配第一个 { 到最后一个 }
var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// AnalysisLogic 基于卫星与天气数据的农场健康分析
type AnalysisLogic struct {
	farms     *FarmLogic
	completer Completer
	runs      *keyed.Runner[*Analysis]
}

// NewAnalysisLogic 创建分析逻辑
func NewAnalysisLogic(farms *FarmLogic, completer Completer) *AnalysisLogic {
	return &AnalysisLogic{
		farms:     farms,
		completer: completer,
		runs:      keyed.NewRunner[*Analysis](),
	}
}

// Analyze 生成农场健康分析；模型输出无法解析时返回 ErrNoAnalysis
func (l *AnalysisLogic) Analyze(ctx context.Context, session model.Session, farmID string) (*Analysis, error) {
	detail, err := l.farms.Get(ctx, session, farmID)
	if err != nil {
		return nil, err
	}
	if detail.Satellite == nil || detail.Weather == nil {
		return nil, ErrNoFarmData
	}

	prompt := BuildPrompt(detail.FarmModel, *detail.Satellite, *detail.Weather)
	return l.runs.Do(ctx, farmID, func(ctx context.Context) (*Analysis, error) {
		text, err := l.completer.Complete(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("failed to get analysis of farm %s: %w", farmID, err)
		}
		analysis, err := ParseAnalysis(text)
		if err != nil {
			logger.Warn("Failed to parse analysis of farm %s: %v", farmID, err)
			return nil, ErrNoAnalysis
		}
		return analysis, nil
	})
}

// Close 取消进行中的分析
func (l *AnalysisLogic) Close() {
	l.runs.Close()
}

// BuildPrompt 组装分析提示词
func BuildPrompt(farm model.FarmModel, satellite model.FarmSatelliteModel, weather model.FarmWeatherModel) string {
	var sb strings.Builder
	for _, r := range ClassifyAll(satellite.Metrics()) {
		fmt.Fprintf(&sb, "%s=%.3f, ", r.Name, r.Value)
	}
	metrics := strings.TrimSuffix(sb.String(), ", ")

	return fmt.Sprintf(`You are given the following farm data %s, Location:%s Weather: Temperature=%.1f degrees celcius, Humidity=%.0f%%. Crops: %s. Using this data, return a JSON formatted response with the following fields "farm_health": A string value "Good", "Average", or "Poor" based on these overall conditions

"potential_pests": A list of strings indicating pests likely to affect the crop under these conditions.

"crop_stage_match": An object with:

"percentage": A number (0 to 100) showing how well current environmental conditions match the needs of the crop at the %s stage. and "status": "Good" or "Poor", based on the percentage match.

"disease_risk_assessment": A list of objects, each with:

"disease": The name of the potential disease.

"description": A VERY brief explanation of the disease and its risk factors based on the current conditions.

Output only in JSON. No additional explanation`,
		metrics, farm.LocationName, weather.Temperature, weather.Humidity,
		strings.Join(farm.CropTypes, ", "), farm.FarmStage.Value)
}

// ParseAnalysis 从模型输出中提取并解析 JSON
func ParseAnalysis(text string) (*Analysis, error) {
	raw := jsonObject.FindString(text)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}
	var analysis Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("invalid analysis JSON: %w", err)
	}
	if analysis.FarmHealth == "" {
		return nil, fmt.Errorf("analysis has no farm_health")
	}
	return &analysis, nil
}
