// Package web 嵌入的前端外壳页面与 404 页面
package web

import "embed"

// StaticFS 内嵌静态文件
//
//go:embed index.html 404.html
var StaticFS embed.FS

// 页面文件名
const (
	ShellPage    = "index.html"
	NotFoundPage = "404.html"
)
