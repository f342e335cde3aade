// Package log 持有进程级 zerolog 日志，按配置输出到终端（console 或 json）并可经 lumberjack 轮转写入文件.
package log

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/yeisme/pastevault/pkg/configs"
)

var (
	logger   zerolog.Logger
	initOnce sync.Once

	reloadable atomic.Int32
)

// levelHook 按 reloadable 丢弃低于当前级别的事件.
type levelHook struct{}

func (levelHook) Run(e *zerolog.Event, level zerolog.Level, _ string) {
	if level != zerolog.NoLevel && int32(level) < reloadable.Load() {
		e.Discard()
	}
}

// Init 按全局配置初始化日志，重复调用无效果.
// 配置热重载时 log.level 立即生效，其它日志配置需要重启.
func Init() {
	initOnce.Do(func() {
		cfg := configs.GetConfig()

		reloadable.Store(int32(parseLevel(cfg.Log.Level)))
		logger = New(cfg.Log, cfg.Server.Debug, os.Stderr).Level(zerolog.TraceLevel).Hook(levelHook{})
		zlog.Logger = logger

		configs.OnReload(func(c *configs.AppConfig) {
			reloadable.Store(int32(parseLevel(c.Log.Level)))
		})

		if cfg.Server.Debug {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	})
}

// New 根据配置构造 logger，终端输出写入 out. debug 时附带调用位置.
func New(cfg configs.LogConfig, debug bool, out io.Writer) zerolog.Logger {
	lvl := parseLevel(cfg.Level)

	if cfg.Format != configs.LogFormatJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	writers := []io.Writer{out}
	if cfg.EnableFile {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}

	c := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(lvl).With().Timestamp().Str("service", "pastevault")
	if debug {
		c = c.Caller()
	}

	return c.Logger()
}

// parseLevel 无法识别时使用 info.
func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}

	return lvl
}

// Logger 返回全局 logger，首次使用时初始化.
func Logger() *zerolog.Logger {
	Init()

	return &logger
}

// GinWriter 把 gin 打印的文本行转成日志事件，[WARNING] 开头的行记为 warn.
type GinWriter struct {
	logger *zerolog.Logger
	level  zerolog.Level
}

func NewGinWriter(logger *zerolog.Logger, level zerolog.Level) *GinWriter {
	return &GinWriter{logger: logger, level: level}
}

func (w *GinWriter) Write(p []byte) (int, error) {
	for line := range bytes.Lines(p) {
		msg := strings.TrimSpace(string(line))
		if msg == "" {
			continue
		}

		lvl := w.level
		if rest, ok := strings.CutPrefix(msg, "[WARNING]"); ok {
			lvl, msg = zerolog.WarnLevel, strings.TrimSpace(rest)
		}

		msg = strings.TrimSpace(strings.TrimPrefix(msg, "[GIN-debug]"))
		w.logger.WithLevel(lvl).Str("source", "gin").Msg(msg)
	}

	return len(p), nil
}
