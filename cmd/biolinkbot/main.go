package main

import (
	"flag"
	"os"

	"biolinkbot/internal/biz"
	"biolinkbot/internal/conf"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs"
)

var (
	// Name is the name of the compiled software.
	Name = "biolinkbot"
	// Version is the version of the compiled software.
	Version string

	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func newApp(logger log.Logger, hs *http.Server, settings *biz.SettingsUsecase) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Logger(logger),
		kratos.Server(hs),
		kratos.BeforeStart(settings.Load),
	)
}

func main() {
	flag.Parse()
	_ = godotenv.Load()

	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)

	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}
	applyEnvOverrides(&bc)

	app, cleanup, err := wireApp(&bc.Server, &bc.Data, &bc.Moderation, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		panic(err)
	}
}

// applyEnvOverrides lets secrets come from the environment (or a .env
// file) instead of the config file.
func applyEnvOverrides(bc *conf.Bootstrap) {
	if v := os.Getenv("ABUSE_API_KEY"); v != "" {
		bc.Moderation.Abuse.APIKey = v
	}
	if v := os.Getenv("PLATFORM_TOKEN"); v != "" {
		bc.Moderation.Platform.Token = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		bc.Data.Database.Source = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		bc.Data.Redis.Addr = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		bc.Data.NATS.URL = v
	}
}
