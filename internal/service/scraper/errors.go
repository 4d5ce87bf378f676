package scraper

import "fmt"

// 三类可区分的失败:启动失败与采集失败会让整个请求失败,
// 入库失败单独上报,不影响已经抓到的数据返回给调用方

type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("浏览器启动失败: %v", e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

type CollectionError struct {
	Err error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("结果采集失败: %v", e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("入库失败: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
