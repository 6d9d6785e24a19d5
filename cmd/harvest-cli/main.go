package main

import (
	"context"

	"webharvest/cmd/harvest-cli/commands"
	"webharvest/lib/serviceutil"
	"webharvest/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "harvest-cli")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer tel.Shutdown(context.Background())

	if tel.MeterProvider != nil {
		telemetry.InstrumentPerfStats(ctx)
	}

	commands.ExecuteContext(ctx)
}
