package logging

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...interface{}) {
	Get(CategoryBoot).Debug(format, args...)
}

// BootWarn logs a warning to the boot category
func BootWarn(format string, args ...interface{}) {
	Get(CategoryBoot).Warn(format, args...)
}

// BootError logs an error to the boot category
func BootError(format string, args ...interface{}) {
	Get(CategoryBoot).Error(format, args...)
}

// Config logs to the config category
func Config(format string, args ...interface{}) {
	Get(CategoryConfig).Info(format, args...)
}

// ConfigDebug logs debug to the config category
func ConfigDebug(format string, args ...interface{}) {
	Get(CategoryConfig).Debug(format, args...)
}

// ConfigWarn logs a warning to the config category
func ConfigWarn(format string, args ...interface{}) {
	Get(CategoryConfig).Warn(format, args...)
}

// ConfigError logs an error to the config category
func ConfigError(format string, args ...interface{}) {
	Get(CategoryConfig).Error(format, args...)
}

// Server logs to the server category
func Server(format string, args ...interface{}) {
	Get(CategoryServer).Info(format, args...)
}

// ServerDebug logs debug to the server category
func ServerDebug(format string, args ...interface{}) {
	Get(CategoryServer).Debug(format, args...)
}

// ServerWarn logs a warning to the server category
func ServerWarn(format string, args ...interface{}) {
	Get(CategoryServer).Warn(format, args...)
}

// ServerError logs an error to the server category
func ServerError(format string, args ...interface{}) {
	Get(CategoryServer).Error(format, args...)
}

// API logs to the api category
func API(format string, args ...interface{}) {
	Get(CategoryAPI).Info(format, args...)
}

// APIDebug logs debug to the api category
func APIDebug(format string, args ...interface{}) {
	Get(CategoryAPI).Debug(format, args...)
}

// APIWarn logs a warning to the api category
func APIWarn(format string, args ...interface{}) {
	Get(CategoryAPI).Warn(format, args...)
}

// APIError logs an error to the api category
func APIError(format string, args ...interface{}) {
	Get(CategoryAPI).Error(format, args...)
}

// Advice logs to the advice category
func Advice(format string, args ...interface{}) {
	Get(CategoryAdvice).Info(format, args...)
}

// AdviceDebug logs debug to the advice category
func AdviceDebug(format string, args ...interface{}) {
	Get(CategoryAdvice).Debug(format, args...)
}

// AdviceWarn logs a warning to the advice category
func AdviceWarn(format string, args ...interface{}) {
	Get(CategoryAdvice).Warn(format, args...)
}

// AdviceError logs an error to the advice category
func AdviceError(format string, args ...interface{}) {
	Get(CategoryAdvice).Error(format, args...)
}

// Pile logs to the pile category
func Pile(format string, args ...interface{}) {
	Get(CategoryPile).Info(format, args...)
}

// PileDebug logs debug to the pile category
func PileDebug(format string, args ...interface{}) {
	Get(CategoryPile).Debug(format, args...)
}

// Store logs to the store category
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs debug to the store category
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}

// StoreWarn logs a warning to the store category
func StoreWarn(format string, args ...interface{}) {
	Get(CategoryStore).Warn(format, args...)
}

// StoreError logs an error to the store category
func StoreError(format string, args ...interface{}) {
	Get(CategoryStore).Error(format, args...)
}

// UI logs to the ui category
func UI(format string, args ...interface{}) {
	Get(CategoryUI).Info(format, args...)
}

// UIDebug logs debug to the ui category
func UIDebug(format string, args ...interface{}) {
	Get(CategoryUI).Debug(format, args...)
}

// UIWarn logs a warning to the ui category
func UIWarn(format string, args ...interface{}) {
	Get(CategoryUI).Warn(format, args...)
}

// UIError logs an error to the ui category
func UIError(format string, args ...interface{}) {
	Get(CategoryUI).Error(format, args...)
}

// Telemetry logs to the telemetry category
func Telemetry(format string, args ...interface{}) {
	Get(CategoryTelemetry).Info(format, args...)
}

// TelemetryDebug logs debug to the telemetry category
func TelemetryDebug(format string, args ...interface{}) {
	Get(CategoryTelemetry).Debug(format, args...)
}

// TelemetryWarn logs a warning to the telemetry category
func TelemetryWarn(format string, args ...interface{}) {
	Get(CategoryTelemetry).Warn(format, args...)
}

// TelemetryError logs an error to the telemetry category
func TelemetryError(format string, args ...interface{}) {
	Get(CategoryTelemetry).Error(format, args...)
}
