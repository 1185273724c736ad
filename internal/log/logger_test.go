package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewAppLoggerWithConfig(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAppLoggerWithConfig(&buf, true)
	if logger == nil {
		t.Fatal("日志实例不应为nil")
	}
	if !logger.debug {
		t.Error("调试模式应为true")
	}
	if logger.fileHandle != nil {
		t.Error("外部输出时不应持有文件句柄")
	}
}

func TestAppLogger_Debug(t *testing.T) {
	tests := []struct {
		name      string
		debugMode bool
		message   string
		expectLog bool
	}{
		{"调试模式下输出", true, "测试调试消息", true},
		{"非调试模式下不输出", false, "这条不应该出现", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewAppLoggerWithConfig(&buf, tt.debugMode)
			logger.Debug(tt.message)
			output := buf.String()
			hasLog := strings.Contains(output, tt.message)
			if hasLog != tt.expectLog {
				t.Errorf("期望有日志输出=%v，实际=%v", tt.expectLog, hasLog)
			}
			if tt.expectLog && !strings.Contains(output, "[DEBUG]") {
				t.Error("调试日志应包含 [DEBUG] 前缀")
			}
		})
	}
}

func TestAppLogger_Levels(t *testing.T) {
	tests := []struct {
		name   string
		log    func(l *AppLogger)
		prefix string
		text   string
	}{
		{"info", func(l *AppLogger) { l.Info("测试信息: %s", "参数值") }, "[INFO]", "测试信息: 参数值"},
		{"warn", func(l *AppLogger) { l.Warn("测试警告: %d", 123) }, "[WARN]", "测试警告: 123"},
		{"error", func(l *AppLogger) { l.Error("测试错误: %v", "详细信息") }, "[ERROR]", "测试错误: 详细信息"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewAppLoggerWithConfig(&buf, false))
			output := buf.String()
			if !strings.Contains(output, tt.prefix) {
				t.Errorf("日志应包含 %s 前缀: %q", tt.prefix, output)
			}
			if !strings.Contains(output, tt.text) {
				t.Errorf("日志应包含格式化后的消息: %q", output)
			}
		})
	}
}

func TestAppLogger_NilSafety(t *testing.T) {
	var logger *AppLogger
	logger.Debug("不应panic")
	logger.Info("不应panic")
	logger.Warn("不应panic")
	logger.Error("不应panic")
	if err := logger.Close(); err != nil {
		t.Errorf("关闭nil日志不应返回错误: %v", err)
	}
}

func TestContainsPathTraversal(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"正常路径", "/var/log/imagebot.log", false},
		{"包含..", "/var/../etc/passwd", true},
		{"相对路径", "./local.log", true},
		{"Windows上级目录", "..\\config.ini", true},
		{"空路径", "", false},
		{"文件名包含点", "/var/log/app.2024.log", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := containsPathTraversal(tt.path); result != tt.expected {
				t.Errorf("containsPathTraversal(%q) = %v，期望 %v", tt.path, result, tt.expected)
			}
		})
	}
}

func TestIsDebug(t *testing.T) {
	tests := []struct {
		ginMode  string
		expected bool
	}{
		{"debug", true},
		{"release", false},
		{"test", false},
	}
	for _, tt := range tests {
		t.Run(tt.ginMode, func(t *testing.T) {
			t.Setenv("GIN_MODE", tt.ginMode)
			if result := IsDebug(); result != tt.expected {
				t.Errorf("IsDebug() = %v，期望 %v", result, tt.expected)
			}
		})
	}
}

func TestCreateLogger_FallsBackToStdout(t *testing.T) {
	t.Setenv("DEBUG_FILE", "../escape.log")
	logger, ok := CreateLogger().(*AppLogger)
	if !ok {
		t.Fatal("CreateLogger should return *AppLogger")
	}
	if logger.fileHandle != nil {
		t.Error("path traversal should fall back to stdout")
	}
}
