package logger

import (
	"context"
	"fmt"
	"os"
	"sync"

	gutils "github.com/Laisky/go-utils/v5"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"

	"github.com/opengw/llmgateway/common/config"
)

var (
	Logger       glog.Logger
	initLogOnce  sync.Once
	enhanceOnce  sync.Once
)

// init initializes the logger automatically when the package is imported
// so that other packages' init() / package-var functions can log safely.
func init() {
	initLogger()
}

func initLogger() {
	initLogOnce.Do(func() {
		var err error
		level := glog.LevelInfo
		if config.DebugEnabled {
			level = glog.LevelDebug
		}

		Logger, err = glog.NewConsoleWithName("llmgateway", level)
		if err != nil {
			panic(fmt.Sprintf("failed to create logger: %+v", err))
		}
	})
}

// SetupEnhancedLogger wires an alert pusher (for error-level hooks) and tags
// every subsequent log line with the process hostname. Safe to call once at
// startup; a nil ctx is rejected by the rate limiter below.
func SetupEnhancedLogger(ctx context.Context) {
	enhanceOnce.Do(func() {
		opts := []zap.Option{}

		if config.LogPushAPI != "" {
			ratelimiter, err := gutils.NewRateLimiter(ctx, gutils.RateLimiterArgs{
				Max:     1,
				NPerSec: 1,
			})
			if err != nil {
				Logger.Panic("create ratelimiter", zap.Error(err))
			}

			alertPusher, err := glog.NewAlert(
				ctx,
				config.LogPushAPI,
				glog.WithAlertType(config.LogPushType),
				glog.WithAlertToken(config.LogPushToken),
				glog.WithAlertHookLevel(zap.ErrorLevel),
				glog.WithRateLimiter(ratelimiter),
			)
			if err != nil {
				Logger.Panic("create AlertPusher", zap.Error(err))
			}

			opts = append(opts, zap.HooksWithFields(alertPusher.GetZapHook()))
			Logger.Info("alert pusher configured",
				zap.String("alert_api", config.LogPushAPI),
				zap.String("alert_type", config.LogPushType),
			)
		}

		hostname, err := os.Hostname()
		if err != nil {
			Logger.Panic("get hostname", zap.Error(err))
		}

		Logger = Logger.WithOptions(opts...).With(zap.String("host", hostname))

		if config.DebugEnabled {
			_ = Logger.ChangeLevel("debug")
		} else {
			_ = Logger.ChangeLevel("info")
		}
	})
}
