package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
	"github.com/topfreegames/pitaya/v3/pkg/logger/interfaces"
	logruswrapper "github.com/topfreegames/pitaya/v3/pkg/logger/logrus"
)

// LogConf 日志配置，MaxAge和Rotation单位为小时
type LogConf struct {
	Dir      string `mapstructure:"dir"`
	Level    string `mapstructure:"level"`
	MaxAge   int    `mapstructure:"max_age"`
	Rotation int    `mapstructure:"rotation"`
	Console  bool   `mapstructure:"console"`
}

type Formatter struct{}

// Format 时间 [级别] 文件:行 函数 内容
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format(time.DateTime)
	level := strings.ToLower(entry.Level.String())
	if entry.Caller == nil {
		return fmt.Appendf(nil, "%s [%s] %s\n", timestamp, level, entry.Message), nil
	}
	fileName := filepath.Base(entry.Caller.File)
	funcName := entry.Caller.Function
	if i := strings.LastIndex(funcName, "."); i >= 0 {
		funcName = funcName[i+1:]
	}
	return fmt.Appendf(nil, "%s [%s] %s:%d %s %s\n", timestamp, level, fileName, entry.Caller.Line, funcName, entry.Message), nil
}

// Logger 按配置创建pitaya用的日志，级别无法解析时用info
func Logger(conf LogConf) (interfaces.Logger, error) {
	level, err := logrus.ParseLevel(conf.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l := logrus.New()
	writer, err := newWriter(conf)
	if err != nil {
		return nil, err
	}
	if conf.Console {
		l.SetOutput(io.MultiWriter(writer, os.Stdout))
	} else {
		l.SetOutput(writer)
	}
	l.SetReportCaller(true)
	l.Formatter = &Formatter{}
	l.SetLevel(level)
	return logruswrapper.NewWithFieldLogger(l), nil
}

func newWriter(conf LogConf) (*SafeRotateLogs, error) {
	dir := conf.Dir
	if dir == "" {
		dir = "./logs"
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}
	s := &SafeRotateLogs{
		logPattern: filepath.Join(dir, fmt.Sprintf("%s-%%Y%%m%%d.log", filepath.Base(os.Args[0]))),
		maxAge:     hours(conf.MaxAge, 7*24),
		rotation:   hours(conf.Rotation, 24),
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func hours(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Hour
}

// SafeRotateLogs 日志文件被删掉后重新创建
type SafeRotateLogs struct {
	*rotatelogs.RotateLogs
	logPattern string
	maxAge     time.Duration
	rotation   time.Duration
}

func (s *SafeRotateLogs) open() error {
	writer, err := rotatelogs.New(
		s.logPattern,
		rotatelogs.WithMaxAge(s.maxAge),
		rotatelogs.WithRotationTime(s.rotation),
	)
	if err != nil {
		return fmt.Errorf("create log writer: %w", err)
	}
	s.RotateLogs = writer
	return nil
}

func (s *SafeRotateLogs) Write(p []byte) (n int, err error) {
	if current := s.RotateLogs.CurrentFileName(); current != "" {
		if _, err := os.Stat(current); os.IsNotExist(err) {
			if err := s.open(); err != nil {
				return 0, err
			}
		}
	}
	return s.RotateLogs.Write(p)
}
