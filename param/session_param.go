package param

// Session 单次抓取会话的浏览器选项
// Headless与Lang来自调用方,其余浏览器参数以配置文件为准
type Session struct {
	Headless bool   `json:"headless"`
	Lang     string `json:"lang"`
}
