package model

import "time"

type RunStatus string

const (
	StatusSuccess RunStatus = "success"
	StatusPartial RunStatus = "partial"
	StatusFailure RunStatus = "failure"
)

// HistoryEntry 一次抓取运行的审计记录,以Source为键
// 同一Source的重复运行会覆盖旧记录(last-write-wins)
type HistoryEntry struct {
	Source      string    `json:"source"`
	SearchKey   string    `json:"search_key,omitempty"`
	LocationKey string    `json:"location_key,omitempty"`
	Requested   int       `json:"requested"`
	Returned    int       `json:"returned"`
	Dropped     int       `json:"dropped"`
	Status      RunStatus `json:"status"`
	RunAt       time.Time `json:"run_at"`
}

// DeriveStatus 根据请求量与实际返回量推导运行状态
// requested <= 0 表示调用方未设上限,只要没出错就算success;
// 设了上限但返回不足时为partial(由站点数据决定,不是错误)
func DeriveStatus(requested, returned int) RunStatus {
	if requested > 0 && returned < requested {
		return StatusPartial
	}
	return StatusSuccess
}
