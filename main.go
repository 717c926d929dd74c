package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/cupogo/andvari/utils/zlog"

	"github.com/liut/tutoria/pkg/services/stores"
	"github.com/liut/tutoria/pkg/settings"
	"github.com/liut/tutoria/pkg/web"
)

func main() {
	var usage bool
	flag.BoolVar(&usage, "usage", false, "show usage")
	flag.Parse()
	if usage {
		_ = settings.Usage()
		return
	}

	var zlogger *zap.Logger
	if settings.InDevelop() {
		zlogger, _ = zap.NewDevelopment()
	} else {
		zlogger, _ = zap.NewProduction()
	}
	sugar := zlogger.Sugar()
	zlog.Set(sugar)

	if settings.Current.DbAutoInit && len(settings.Current.PgStoreDSN) > 0 {
		if err := stores.InitDB(); err != nil {
			sugar.Fatalw("init db fail", "err", err)
		}
	}

	srv := web.New(web.Config{
		Addr:  settings.Current.HTTPListen,
		Debug: settings.InDevelop(),
	})

	idleClosed := make(chan struct{})
	ctx := context.Background()
	go func() {
		quit := make(chan os.Signal, 2)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		sugar.Info("shuting down server...")
		if err := srv.Stop(ctx); err != nil {
			sugar.Infow("server shutdown:", "err", err)
		}
		close(idleClosed)
	}()

	if err := srv.Serve(ctx); err != nil {
		sugar.Infow("serve fali", "err", err)
	}

	<-idleClosed
}
