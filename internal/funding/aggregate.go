package funding

import (
	"math/big"
	"sort"
	"strconv"
	"time"
)

var (
	hundred  = big.NewInt(100)
	thousand = big.NewInt(1000)
)

// CampaignView 带进度信息的众筹
type CampaignView struct {
	Campaign
	Percentage      uint64 `json:"percentage"`
	PercentageLabel string `json:"percentage_label"`
	Goal            string `json:"goal"`
	Raised          string `json:"raised"`
	Funded          bool   `json:"funded"`
}

// Overview 众筹列表视图：全部、进行中、已完成
type Overview struct {
	Campaigns   []CampaignView `json:"campaigns"`
	Ongoing     []CampaignView `json:"ongoing"`
	Funded      []CampaignView `json:"funded"`
	RefreshedAt time.Time      `json:"refreshed_at"`
}

// Percentage min(100, floor(current*100/goal))，goal 为 0 时返回 0
func Percentage(current, goal *big.Int) uint64 {
	return ratio(current, goal, hundred)
}

// PercentageLabel 进度文本：千分比有小数位时保留一位小数，否则为整数
func PercentageLabel(current, goal *big.Int) string {
	permille := ratio(current, goal, thousand)
	if permille%10 == 0 {
		return strconv.FormatUint(permille/10, 10)
	}
	return strconv.FormatUint(permille/10, 10) + "." + strconv.FormatUint(permille%10, 10)
}

// ratio min(scale, floor(current*scale/goal))
func ratio(current, goal, scale *big.Int) uint64 {
	if goal == nil || goal.Sign() <= 0 || current == nil || current.Sign() <= 0 {
		return 0
	}
	v := new(big.Int).Mul(current, scale)
	v.Quo(v, goal)
	if v.Cmp(scale) > 0 {
		return scale.Uint64()
	}
	return v.Uint64()
}

// IsFunded currentFunding >= totalFundingGoal，与 isActive 无关
func IsFunded(c Campaign) bool {
	current := c.CurrentFunding
	if current == nil {
		current = new(big.Int)
	}
	goal := c.TotalFundingGoal
	if goal == nil {
		goal = new(big.Int)
	}
	return current.Cmp(goal) >= 0
}

// View 计算单个众筹的视图
func View(c Campaign) CampaignView {
	return CampaignView{
		Campaign:        c,
		Percentage:      Percentage(c.CurrentFunding, c.TotalFundingGoal),
		PercentageLabel: PercentageLabel(c.CurrentFunding, c.TotalFundingGoal),
		Goal:            FormatUnits(c.TotalFundingGoal),
		Raised:          FormatUnits(c.CurrentFunding),
		Funded:          IsFunded(c),
	}
}

// Aggregate 全量重算视图：按比例分区，分区内按创建时间倒序稳定排序
func Aggregate(campaigns []Campaign) Overview {
	overview := Overview{
		Campaigns: make([]CampaignView, 0, len(campaigns)),
		Ongoing:   make([]CampaignView, 0),
		Funded:    make([]CampaignView, 0),
	}

	for _, c := range campaigns {
		view := View(c)
		overview.Campaigns = append(overview.Campaigns, view)
		if view.Funded {
			overview.Funded = append(overview.Funded, view)
		} else {
			overview.Ongoing = append(overview.Ongoing, view)
		}
	}

	sortNewestFirst(overview.Ongoing)
	sortNewestFirst(overview.Funded)
	return overview
}

func sortNewestFirst(views []CampaignView) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt > views[j].CreatedAt
	})
}
