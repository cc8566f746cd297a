package obs

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogConfig struct {
	Level  string
	Pretty bool
	App    string
	Env    string
	Ver    string

	// AuditFile receives a plain-text copy of every Info+ entry. Empty disables it.
	AuditFile       string
	AuditMaxSizeMB  int
	AuditMaxBackups int
}

func NewLogger(c LogConfig) (*zap.Logger, error) {
	level := new(zapcore.Level)
	if err := level.Set(c.Level); err != nil {
		*level = zapcore.InfoLevel
	}

	var encCfg zapcore.EncoderConfig
	if c.Pretty {
		encCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encCfg = zap.NewProductionEncoderConfig()
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if c.Pretty {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), zap.NewAtomicLevelAt(*level)),
	}
	if c.AuditFile != "" {
		cores = append(cores, newAuditCore(c))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller()).With(
		zap.String("service", c.App),
		zap.String("env", c.Env),
		zap.String("version", c.Ver),
	)
	return l, nil
}

// newAuditCore writes "[ts] - LEVEL - message" lines to a size-rotated file.
func newAuditCore(c LogConfig) zapcore.Core {
	maxSize := c.AuditMaxSizeMB
	if maxSize <= 0 {
		maxSize = 5
	}
	backups := c.AuditMaxBackups
	if backups <= 0 {
		backups = 5
	}
	w := &lumberjack.Logger{
		Filename:   c.AuditFile,
		MaxSize:    maxSize,
		MaxBackups: backups,
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeTime:       zapcore.TimeEncoderOfLayout("[2006-01-02 15:04:05.000]"),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		ConsoleSeparator: " - ",
		LineEnding:       zapcore.DefaultLineEnding,
	}
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), zapcore.InfoLevel)
}
