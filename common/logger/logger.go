package logger

import (
	"context"
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

// New builds the service logger for env and installs it as the zap global.
func New(env string) (*zap.Logger, error) {
	return NewWithWriter(env, nil)
}

// NewWithWriter is New with an optional extra JSON sink, used for CloudWatch
// Logs shipping.
func NewWithWriter(env string, sink io.Writer) (*zap.Logger, error) {
	cfg := configFor(env)

	var log *zap.Logger
	if sink != nil {
		level := zap.NewAtomicLevelAt(cfg.Level.Level())
		console := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg.EncoderConfig), zapcore.AddSync(os.Stdout), level)
		remote := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), zapcore.AddSync(sink), level)
		log = zap.New(zapcore.NewTee(console, remote), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		var err error
		log, err = cfg.Build()
		if err != nil {
			return nil, err
		}
	}

	zap.ReplaceGlobals(log)
	return log, nil
}

func configFor(env string) zap.Config {
	if env == "production" {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

// RequestID assigns a request ID (from the header or freshly generated),
// stores it on the gin and request contexts and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestIDFrom extracts the request ID from a gin or plain context.
func RequestIDFrom(ctx context.Context) string {
	if gc, ok := ctx.(*gin.Context); ok {
		if v, exists := gc.Get(RequestIDKey); exists {
			if id, ok := v.(string); ok {
				return id
			}
		}
		ctx = gc.Request.Context()
	}
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return "unknown"
}

// For returns log annotated with the request ID carried by ctx.
func For(ctx context.Context, log *zap.Logger) *zap.Logger {
	return log.With(zap.String("request_id", RequestIDFrom(ctx)))
}
