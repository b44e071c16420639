package app

import (
	"github.com/carousell/ct-go/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/minhngoc274/chatcore/internal/config"
	"github.com/minhngoc274/chatcore/internal/repo/mongodb"
	"github.com/minhngoc274/chatcore/internal/server"
	"github.com/minhngoc274/chatcore/internal/usecase"
)

func Invoke(funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	conf := config.MustLoad()
	log.Debugw("config loaded", log.Reflect("config", conf))
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Unwrap().Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			newMongoDB,
			newRedisClient,
			newEphemeralStore,
			newMessageCache,
			newEventPublisher,

			mongodb.NewRoomRepository,
			mongodb.NewMessageRepository,
			mongodb.NewCallRepository,

			usecase.NewRoomUseCase,
			usecase.NewMessageUseCase,
			usecase.NewCallUseCase,
			usecase.NewPresenceUseCase,
			usecase.NewCallSweeper,

			server.NewSocketServer,
			server.NewSocketBroadcaster,
			server.NewSocketHandler,
			server.NewHealthController,
			server.NewRoomController,
			server.NewMessageController,
			server.NewCallController,
			server.NewPresenceController,
		),
		fx.Supply(conf),
		fx.Invoke(funcs...),
	)
}
