package types

// Listing 结果面板中一条可见条目的句柄,尚未结构化
// URL是该条目的详情页深链,Position是站点展示顺序(从0开始)
type Listing struct {
	URL      string
	Position int
}
