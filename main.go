package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/projecteru2/logview/api"
	"github.com/projecteru2/logview/common"
	"github.com/projecteru2/logview/logs"
	"github.com/projecteru2/logview/manager/logview"
	"github.com/projecteru2/logview/metrics"
	"github.com/projecteru2/logview/types"
	"github.com/projecteru2/logview/utils"
	"github.com/projecteru2/logview/version"
	"github.com/projecteru2/logview/view"

	"github.com/jinzhu/configor"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
)

func initConfig(c *cli.Context) (*types.Config, error) {
	config := &types.Config{}

	if err := configor.Load(config, c.String("config")); err != nil {
		return nil, fmt.Errorf("load config failed %w", err)
	}
	if err := config.Prepare(c); err != nil {
		return nil, err
	}
	config.Print()
	return config, nil
}

func serve(c *cli.Context) error {
	if err := logs.Setup(c.String("log-level"), false, version.NAME); err != nil {
		return err
	}
	config, err := initConfig(c)
	if err != nil {
		return err
	}
	if config.Log.Journal {
		if err := logs.Setup(c.String("log-level"), true, version.NAME); err != nil {
			return err
		}
	}

	pid, err := utils.WritePid(config.PidFile)
	if err != nil {
		return err
	}
	defer pid.Remove()

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	metricsClient := metrics.New(config.Metrics.Statsd, config.Metrics.Prefix, prometheus.DefaultRegisterer)
	manager, err := logview.NewManager(ctx, config, metricsClient)
	if err != nil {
		return err
	}
	apiHandler := api.NewHandler(config, manager, view.NewRegistry(config.Session.TTL), metricsClient)

	errChan := make(chan error, 2)
	wg := &sync.WaitGroup{}
	wg.Add(3)

	go func() {
		defer wg.Done()
		if err := manager.Run(ctx); err != nil {
			log.Errorf("[logview] manager err: %v, exiting", err)
			errChan <- err
		}
	}()
	go func() {
		defer wg.Done()
		if err := apiHandler.Serve(ctx); err != nil {
			log.Errorf("[logview] api err: %v, exiting", err)
			errChan <- err
		}
	}()
	go func() {
		defer wg.Done()
		metricsClient.Run(ctx, config.Metrics.Step)
	}()

	log.Infof("[logview] started, %s", config)
	var result error
	select {
	case <-ctx.Done():
		log.Info("[logview] caught system signal, exiting")
	case result = <-errChan:
		log.Info("[logview] got err, exiting")
		cancel()
	}
	wg.Wait()
	return result
}

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Print(version.String())
	}

	apiAddrFlag := &cli.StringFlag{
		Name:    "api-addr",
		Value:   "",
		Usage:   "api serving address, or the daemon to talk to",
		EnvVars: []string{"LOGVIEW_API_ADDR"},
	}

	app := &cli.App{
		Name:    version.NAME,
		Usage:   "live view of the mosdns log",
		Version: version.VERSION,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "/etc/logview/logview.yaml",
				Usage:   "config file path, in yaml",
				EnvVars: []string{"LOGVIEW_CONFIG_PATH"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "INFO",
				Usage:   "set log level",
				EnvVars: []string{"LOGVIEW_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "pidfile",
				Value:   "",
				Usage:   "pidfile to save",
				EnvVars: []string{"LOGVIEW_PIDFILE"},
			},
			&cli.StringFlag{
				Name:    "source",
				Value:   "",
				Usage:   "log source type, command or file",
				EnvVars: []string{"LOGVIEW_SOURCE"},
			},
			&cli.StringFlag{
				Name:    "print-command",
				Value:   "",
				Usage:   "command printing the log, e.g. \"" + common.DefaultScript + " printlog\"",
				EnvVars: []string{"LOGVIEW_PRINT_COMMAND"},
			},
			&cli.StringFlag{
				Name:    "clear-command",
				Value:   "",
				Usage:   "command clearing the log",
				EnvVars: []string{"LOGVIEW_CLEAR_COMMAND"},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Value:   "",
				Usage:   "log file for the file source",
				EnvVars: []string{"LOGVIEW_LOG_FILE"},
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "interval to refresh the log",
				EnvVars: []string{"LOGVIEW_POLL_INTERVAL"},
			},
			&cli.IntFlag{
				Name:    "buffer-max-lines",
				Usage:   "max lines kept in memory",
				EnvVars: []string{"LOGVIEW_BUFFER_MAX_LINES"},
			},
			&cli.StringFlag{
				Name:    "buffer-max-size",
				Value:   "",
				Usage:   "max bytes kept in memory, e.g. 1M",
				EnvVars: []string{"LOGVIEW_BUFFER_MAX_SIZE"},
			},
			apiAddrFlag,
			&cli.StringFlag{
				Name:    "statsd",
				Value:   "",
				Usage:   "statsd address",
				EnvVars: []string{"LOGVIEW_STATSD"},
			},
			&cli.DurationFlag{
				Name:    "metrics-step",
				Usage:   "interval for metrics to send",
				EnvVars: []string{"LOGVIEW_METRICS_STEP"},
			},
			&cli.BoolFlag{
				Name:    "journal",
				Usage:   "mirror diagnostics to journald",
				EnvVars: []string{"LOGVIEW_JOURNAL"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "tail",
				Usage:  "follow the log of a running daemon",
				Action: tailLog,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "interval",
						Value: common.DefaultPollInterval,
						Usage: "refresh interval",
					},
				},
			},
			{
				Name:   "clear",
				Usage:  "clear the log through a running daemon",
				Action: clearLog,
			},
			{
				Name:   "status",
				Usage:  "show daemon status",
				Action: showStatus,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Errorf("Error running logview: %v", err)
		os.Exit(1)
	}
}
