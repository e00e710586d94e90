package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"finsight/internal/agents/workflows"
	"finsight/internal/bootstrap"
	"finsight/internal/domain/report"
)

func main() {
	runKind := flag.String("run", "", "run one workflow (market_analysis|market_news) and exit")
	flag.Parse()

	container := bootstrap.NewContainer()
	container.MustInit()

	if *runKind != "" {
		os.Exit(runOnce(container, report.Kind(*runKind)))
	}

	if err := container.Start(); err != nil {
		container.Log.Errorf("Failed to start: %v", err)
		container.Shutdown()
		os.Exit(1)
	}

	waitForShutdown(container)
}

// runOnce executes a single workflow run synchronously, for manual and cron-job invocations
func runOnce(c *bootstrap.Container, kind report.Kind) int {
	defer c.Shutdown()

	// Cancel the run on SIGINT/SIGTERM; the engine records the failure as cancelled
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		c.Cancel()
	}()

	res, err := c.Business.Engine.Run(c.Context, kind)
	if err != nil {
		c.Log.Error("Workflow run failed", "workflow", kind, "error", err)
		return 1
	}

	c.Log.Infow("Workflow run succeeded", "workflow", kind, "run_id", res.RunID)
	if res.Status == workflows.StatusSucceeded && res.Report != nil {
		fmt.Println(res.Report.Text)
	}
	return 0
}

// waitForShutdown blocks until a signal arrives or the container cancels itself
func waitForShutdown(c *bootstrap.Container) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		c.Log.Info("Received shutdown signal", "signal", sig.String())
	case <-c.Context.Done():
		c.Log.Warn("Context cancelled, shutting down")
	}

	c.Shutdown()
}
