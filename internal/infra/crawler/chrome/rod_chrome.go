package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LouYuanbo1/mapsagent/internal/config"
	"github.com/LouYuanbo1/mapsagent/param"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

type rodCrawler struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// InitRodCrawler 启动一个rod会话,页面带stealth注入以降低被识别为自动化的概率
func InitRodCrawler(ctx context.Context, cfg *config.Config, sess *param.Session) (ChromeCrawler, error) {
	l := launcher.New().
		Headless(sess.Headless).
		NoSandbox(cfg.Rod.NoSandbox).
		Leakless(cfg.Rod.Leakless)
	if cfg.Rod.Bin != "" {
		l = l.Bin(cfg.Rod.Bin)
	}
	if cfg.Rod.UserDataDir != "" {
		l = l.UserDataDir(cfg.Rod.UserDataDir)
	}
	if cfg.Rod.DisableDevShmUsage {
		l = l.Set("disable-dev-shm-usage")
	}
	if cfg.Rod.UserAgent != "" {
		l = l.Set("user-agent", cfg.Rod.UserAgent)
	}
	if sess.Lang != "" {
		l = l.Set("accept-lang", sess.Lang)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(url).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("创建页面失败: %w", err)
	}
	page = page.Context(ctx)

	return &rodCrawler{launcher: l, browser: browser, page: page}, nil
}

func (rc *rodCrawler) Close() {
	_ = rc.page.Close()
	_ = rc.browser.Close()
	rc.launcher.Cleanup()
}

func (rc *rodCrawler) Navigate(url string) error {
	if err := rc.page.Navigate(url); err != nil {
		return err
	}
	return rc.page.WaitLoad()
}

func (rc *rodCrawler) WaitVisible(selector string, timeout time.Duration) error {
	el, err := rc.page.Timeout(timeout).Element(selector)
	if err != nil {
		return err
	}
	return el.WaitVisible()
}

func (rc *rodCrawler) Eval(js string, res any) error {
	// 脚本统一写成IIFE表达式,rod要求函数定义,这里包一层
	obj, err := rc.page.Eval("() => " + js)
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}
	data, err := json.Marshal(obj.Value.Val())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, res)
}

func (rc *rodCrawler) HTML() (string, error) {
	return rc.page.HTML()
}

func (rc *rodCrawler) CurrentURL() (string, error) {
	info, err := rc.page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}
