package model

// PropertyInput 经纪人提交的待分析房产
type PropertyInput struct {
	Address     string   `json:"address"`
	Price       float64  `json:"price"` // 单位：十亿越南盾 (tỷ VND)
	Area        float64  `json:"area"`  // 单位：m2
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Images      []string `json:"images,omitempty"`      // data URL，仅使用第一张
	LocationURL string   `json:"locationUrl,omitempty"` // Google Maps 链接
}

// Coordinates 经纬度
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ClimateRisk 气候风险评分，每项 1-10
type ClimateRisk struct {
	Flood      int `json:"flood"`
	Heat       int `json:"heat"`
	Drought    int `json:"drought"`
	ForestFire int `json:"forestFire"`
}

// ValueEstimation 市场估值区间
type ValueEstimation struct {
	Min      float64 `json:"min"` // 十亿越南盾
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// MarketTrendItem 单个历史价格走势节点
type MarketTrendItem struct {
	Timeline    string `json:"timeline"`
	PriceTrend  string `json:"priceTrend"`
	Description string `json:"description"`
	NewsContext string `json:"newsContext,omitempty"`
}

// MarketAnalysis 市场分析
type MarketAnalysis struct {
	AveragePricePerM2 string            `json:"averagePricePerM2"` // 自由文本，可能是区间
	HistoricalTrends  []MarketTrendItem `json:"historicalTrends"`
	FutureProjections string            `json:"futureProjections"`
}

// LinkSource 引用来源类型
type LinkSource string

const (
	SourceSearch LinkSource = "search"
	SourceMaps   LinkSource = "maps"
)

// GroundingLink 后端引用的数据来源
type GroundingLink struct {
	Title  string     `json:"title"`
	URI    string     `json:"uri"`
	Source LinkSource `json:"source"`
}

// AnalysisResult 单次房产分析结果，返回后不再修改
type AnalysisResult struct {
	Coordinates           Coordinates     `json:"coordinates"`
	TerrainAnalysis       string          `json:"terrainAnalysis"`
	ClimateRisks          ClimateRisk     `json:"climateRisks"`
	MarketValueEstimation ValueEstimation `json:"marketValueEstimation"`
	MarketAnalysis        MarketAnalysis  `json:"marketAnalysis"`
	SuggestedFunctions    []string        `json:"suggestedFunctions"`
	InvestmentScore       int             `json:"investmentScore"` // 1-100
	Reasoning             string          `json:"reasoning"`
	GroundingLinks        []GroundingLink `json:"groundingLinks,omitempty"`
}

// RiskTolerance 客户风险偏好
type RiskTolerance string

const (
	RiskLow    RiskTolerance = "Low"
	RiskMedium RiskTolerance = "Medium"
	RiskHigh   RiskTolerance = "High"
)

// Valid 判断风险偏好是否为已知取值
func (r RiskTolerance) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// CustomerProfile 买家画像
type CustomerProfile struct {
	Budget        float64       `json:"budget"`  // 十亿越南盾
	Purpose       string        `json:"purpose"` // 投资、自住、度假等
	RiskTolerance RiskTolerance `json:"riskTolerance"`
	Lifestyle     string        `json:"lifestyle"`
}

// MatchResult 客户与房产的匹配结果
type MatchResult struct {
	MatchingScore  int      `json:"matchingScore"` // 1-100
	Explanation    string   `json:"explanation"`
	Top3Products   []string `json:"top3Products,omitempty"`
	Recommendation bool     `json:"recommendation"`
}
