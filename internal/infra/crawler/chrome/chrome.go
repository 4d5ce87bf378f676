package chrome

import "time"

// ChromeCrawler 一次抓取会话持有的浏览器句柄
// 实现分为chromedp与rod两种后端,由配置选择;会话在请求结束时必须Close,
// 所有实现都要保证Close幂等且在任何退出路径上释放浏览器进程
type ChromeCrawler interface {
	Navigate(url string) error
	// WaitVisible 等待选择器可见,超时返回错误,调用方自行决定是否忽略
	WaitVisible(selector string, timeout time.Duration) error
	// Eval 在页面上执行js表达式,res非nil时把返回值反序列化进去
	Eval(js string, res any) error
	HTML() (string, error)
	CurrentURL() (string, error)
	Close()
}
