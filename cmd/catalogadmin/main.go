package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	appservice "catalogadmin/pkg/catalog/application/service"
	domainservice "catalogadmin/pkg/catalog/domain/service"
	"catalogadmin/pkg/catalog/infrastructure/remote"
	"catalogadmin/pkg/catalog/infrastructure/transport"
	"catalogadmin/pkg/fakecatalog"
	notificationapp "catalogadmin/pkg/notification/application"
	notificationmodel "catalogadmin/pkg/notification/domain/model"
	notificationservice "catalogadmin/pkg/notification/domain/service"
	"catalogadmin/pkg/notification/infrastructure/inbox"
	"catalogadmin/pkg/querycache"
)

func main() {
	// Both the remote catalog and the admin API carry prices as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	app := &cli.App{
		Name:  appID,
		Usage: "administer a remote product catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML file overriding CATALOGADMIN_* settings",
				EnvVars: []string{"CATALOGADMIN_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			fakeCatalogCommand(),
			productsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("catalogadmin failed")
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the admin JSON API",
		Action: func(c *cli.Context) error {
			conf, logger, err := bootstrap(c)
			if err != nil {
				return err
			}

			app, err := newApplication(conf, logger)
			if err != nil {
				return err
			}
			defer app.close()

			router := transport.Router(app.queries, app.mutations, app.inbox, transport.Options{
				DefaultPageSize: conf.DefaultPageSize,
			}, logger)

			logger.WithFields(logrus.Fields{"address": conf.ServeAddress, "catalog": conf.CatalogURL}).Info("Starting server")
			return runServer(c.Context, conf, logger, router, conf.ServeAddress)
		},
	}
}

func fakeCatalogCommand() *cli.Command {
	return &cli.Command{
		Name:  "fake-catalog",
		Usage: "serve an in-memory product catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "seed", Usage: "products JSON file to start from"},
			&cli.StringFlag{Name: "addr", Usage: "listen address"},
			&cli.BoolFlag{Name: "persist", Usage: "save writes back to the seed file"},
		},
		Action: func(c *cli.Context) error {
			conf, logger, err := bootstrap(c)
			if err != nil {
				return err
			}
			seedPath := conf.SeedPath
			if c.IsSet("seed") {
				seedPath = c.String("seed")
			}
			addr := conf.FakeAddress
			if c.IsSet("addr") {
				addr = c.String("addr")
			}

			products, err := fakecatalog.LoadSeed(seedPath)
			if err != nil {
				if !os.IsNotExist(errors.Cause(err)) {
					return errors.Wrap(err, "failed to load seed")
				}
				logger.WithField("path", seedPath).Warn("Seed file not found, starting with empty catalog.")
			}

			savePath := ""
			if c.Bool("persist") {
				savePath = seedPath
			}
			server := fakecatalog.NewServer(fakecatalog.NewStore(products), savePath, logger)

			logger.WithFields(logrus.Fields{"address": addr, "products": len(products)}).Info("Starting fake catalog")
			return runServer(c.Context, conf, logger, server.Router(), addr)
		},
	}
}

func bootstrap(c *cli.Context) (*config, *logrus.Logger, error) {
	conf, err := parseConfig(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	logger, err := initLogger(conf)
	if err != nil {
		return nil, nil, err
	}
	return conf, logger, nil
}

type application struct {
	cache     *querycache.Store
	inbox     *inbox.Inbox
	queries   appservice.QueryService
	mutations domainservice.MutationService
}

func newApplication(conf *config, logger logrus.FieldLogger) (*application, error) {
	channel, err := conf.notificationChannel()
	if err != nil {
		return nil, err
	}

	client := remote.NewClient(remote.Config{
		BaseURL:   conf.CatalogURL,
		Timeout:   conf.CatalogTimeout,
		RateLimit: conf.RateLimit,
		RateBurst: conf.RateBurst,
	}, logger)
	cache := querycache.New(logger)

	notifications := inbox.New(conf.InboxCapacity)
	notifier := notificationservice.NewNotificationService(
		notifications,
		map[notificationmodel.NotificationChannel]notificationmodel.NotificationSender{
			notificationmodel.Inbox: notifications,
			notificationmodel.Log:   inbox.NewLogSender(logger),
		},
		channel,
		notificationapp.NewDeliveryLogger(logger),
	)

	return &application{
		cache:     cache,
		inbox:     notifications,
		queries:   appservice.NewQueryService(client, cache, logger),
		mutations: domainservice.NewMutationService(client, cache, notificationapp.NewCatalogEventHandler(notifier), logger),
	}, nil
}

func (a *application) close() {
	_ = a.cache.Close()
}

func runServer(ctx context.Context, conf *config, logger logrus.FieldLogger, handler http.Handler, addr string) error {
	srv := newHTTPServer(conf, handler, addr)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	killSignalChan := getKillSignalChan()
	select {
	case err := <-errCh:
		return errors.Wrap(err, "failed to start server")
	case <-ctx.Done():
	case sig := <-killSignalChan:
		logKillSignal(logger, sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newHTTPServer(conf *config, handler http.Handler, addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       conf.ServerReadTimeout,
		ReadHeaderTimeout: conf.ServerReadHeaderTimeout,
		WriteTimeout:      conf.ServerWriteTimeout,
		IdleTimeout:       conf.ServerIdleTimeout,
	}
}

func getKillSignalChan() chan os.Signal {
	osKillSignalChan := make(chan os.Signal, 1)
	signal.Notify(osKillSignalChan, os.Interrupt, syscall.SIGTERM)
	return osKillSignalChan
}

func logKillSignal(logger logrus.FieldLogger, killSignal os.Signal) {
	switch killSignal {
	case os.Interrupt:
		logger.Info("Got SIGINT...")
	case syscall.SIGTERM:
		logger.Info("Got SIGTERM...")
	}
}
