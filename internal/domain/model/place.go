package model

// Place 从Google Maps抓取并归一化后的一条地点记录
// PlaceID是站点提供的稳定标识,入库时作为upsert的唯一键,缺失PlaceID的记录在抽取阶段即被丢弃
type Place struct {
	PlaceID     string   `json:"place_id"`
	Name        string   `json:"name"`
	Address     string   `json:"address,omitempty"`
	Latitude    float64  `json:"latitude,omitempty"`
	Longitude   float64  `json:"longitude,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	Website     string   `json:"website,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Email       string   `json:"email,omitempty"`
	// Link 是该地点在Maps上的详情页深链
	Link string `json:"link,omitempty"`
	// SourceQuery 产生本条记录的原始搜索词
	SourceQuery string `json:"source_query,omitempty"`
}
