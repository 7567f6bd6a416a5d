package config

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情
// 非 release 模式（或配置未初始化）返回 err.Error() 便于调试
func SafeErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if GlobalConfig.IsRelease() {
		return fallback
	}
	return err.Error()
}
