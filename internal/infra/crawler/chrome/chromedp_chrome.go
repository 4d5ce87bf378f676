package chrome

import (
	"context"
	"fmt"
	"time"

	"github.com/LouYuanbo1/mapsagent/internal/config"
	"github.com/LouYuanbo1/mapsagent/param"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

type chromedpCrawler struct {
	pageCtx       context.Context
	pageCtxFuc    context.CancelFunc
	allocCtxFuc   context.CancelFunc
	timeoutCtxFuc context.CancelFunc
}

// InitChromedpCrawler 启动一个chromedp会话
// 传入的ctx是请求上下文,调用方取消时整条上下文链都会被取消,浏览器随之退出
func InitChromedpCrawler(ctx context.Context, cfg *config.Config, sess *param.Session) (ChromeCrawler, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", sess.Headless),
		chromedp.Flag("disable-gpu", cfg.Chromedp.DisableGpu),
		chromedp.Flag("disable-dev-shm-usage", cfg.Chromedp.DisableDevShmUsage),
		chromedp.Flag("no-sandbox", cfg.Chromedp.NoSandbox),
		chromedp.UserAgent(cfg.Chromedp.UserAgent),
	)
	if sess.Lang != "" {
		opts = append(opts, chromedp.Flag("accept-lang", sess.Lang))
	}
	if cfg.Chromedp.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.Chromedp.UserDataDir))
	}

	timeoutCtx := ctx
	cancelTimeout := context.CancelFunc(func() {})
	if cfg.Chromedp.LifeTime > 0 {
		timeoutCtx, cancelTimeout = context.WithTimeout(ctx, time.Duration(cfg.Chromedp.LifeTime)*time.Second)
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(timeoutCtx, opts...)
	pageCtx, cancelPage := chromedp.NewContext(allocCtx)

	cc := &chromedpCrawler{
		pageCtx:       pageCtx,
		pageCtxFuc:    cancelPage,
		allocCtxFuc:   cancelAlloc,
		timeoutCtxFuc: cancelTimeout,
	}

	// 空任务会触发浏览器进程启动,启动失败在这里暴露而不是拖到第一次导航
	if err := chromedp.Run(pageCtx); err != nil {
		cc.Close()
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}
	return cc, nil
}

func (cc *chromedpCrawler) Close() {
	cc.pageCtxFuc()
	cc.allocCtxFuc()
	cc.timeoutCtxFuc()
}

func (cc *chromedpCrawler) Navigate(url string) error {
	return chromedp.Run(cc.pageCtx,
		network.Enable(),
		chromedp.Navigate(url),
	)
}

func (cc *chromedpCrawler) WaitVisible(selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(cc.pageCtx, timeout)
	defer cancel()
	return chromedp.Run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (cc *chromedpCrawler) Eval(js string, res any) error {
	return chromedp.Run(cc.pageCtx, chromedp.Evaluate(js, res))
}

func (cc *chromedpCrawler) HTML() (string, error) {
	var html string
	if err := chromedp.Run(cc.pageCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (cc *chromedpCrawler) CurrentURL() (string, error) {
	var url string
	if err := chromedp.Run(cc.pageCtx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}
