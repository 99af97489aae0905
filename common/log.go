package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// writerHook 实现级别过滤的Hook，文件只记录minLevel及以上
type writerHook struct {
	Writer    io.Writer
	LogLevels []logrus.Level
	Formatter logrus.Formatter
	minLevel  logrus.Level
}

func (hook *writerHook) Fire(entry *logrus.Entry) error {
	if entry.Level > hook.minLevel {
		return nil
	}
	line, err := hook.Formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = hook.Writer.Write(line)
	return err
}

func (hook *writerHook) Levels() []logrus.Level {
	return hook.LogLevels
}

// TextFormatter 自定义日志格式(带颜色)
type TextFormatter struct {
	UseColor bool
}

func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("2006-01-02 15:04:05,000")
	level := strings.ToUpper(entry.Level.String())
	message := strings.TrimRight(entry.Message, "\n")

	// 根据级别设置颜色
	var levelPart string
	if f.UseColor {
		switch entry.Level {
		case logrus.DebugLevel:
			levelPart = color.BlueString(level)
		case logrus.InfoLevel:
			levelPart = color.GreenString(level)
		case logrus.WarnLevel:
			levelPart = color.YellowString(level)
		case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
			levelPart = color.RedString(level)
		default:
			levelPart = level
		}
	} else {
		levelPart = level
	}

	logLine := fmt.Sprintf("%s - %s - %s\n", timestamp, levelPart, message)
	return []byte(logLine), nil
}

func NewLogger(logPath string, logSize int, useColor bool) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)

	// 控制台输出所有级别，带颜色
	log.SetFormatter(&TextFormatter{UseColor: useColor})
	log.SetOutput(os.Stdout)

	// 文件输出仅Warning及以上级别，按大小轮转
	fileLogger := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logSize, // 单个日志文件大小MB
		MaxBackups: 7,
		MaxAge:     7,
		Compress:   false,
		LocalTime:  true,
	}

	log.AddHook(&writerHook{
		Writer:    fileLogger,
		LogLevels: logrus.AllLevels,
		Formatter: &TextFormatter{UseColor: false},
		minLevel:  logrus.WarnLevel,
	})
	return log
}
