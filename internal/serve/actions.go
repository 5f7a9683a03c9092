package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dtnitsch/smart-browse/internal/common"
	"github.com/dtnitsch/smart-browse/internal/server"
	"github.com/urfave/cli/v2"
)

// ServeAction runs the local messaging server until interrupted.
func ServeAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	source, err := common.NewPageSource(c, env.Logger)
	if err != nil {
		return err
	}
	srv := server.New(env.Router, env.Storage, source, common.NewExtractor(c, env.Logger), env.Logger)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, c.String("addr")); err != nil {
		return common.Fail(env.Logger, "server failed", err)
	}
	env.Logger.Info("server exited")
	return nil
}

type healthReport struct {
	Local   bool `json:"local" yaml:"local"`
	Backend bool `json:"backend" yaml:"backend"`
	Storage bool `json:"storage" yaml:"storage"`
}

// HealthAction checks both model endpoints and the store. It exits 2 when
// neither endpoint answers or the store is unreachable.
func HealthAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	health := env.Router.Health(c.Context)
	report := healthReport{Local: health.Local, Backend: health.Backend, Storage: true}
	if err := env.KV.Ping(c.Context); err != nil {
		env.Logger.Warn("store unreachable", "error", err)
		report.Storage = false
	}
	if err := env.Print(report); err != nil {
		return err
	}
	if (!report.Local && !report.Backend) || !report.Storage {
		return cli.Exit("", 2)
	}
	return nil
}
