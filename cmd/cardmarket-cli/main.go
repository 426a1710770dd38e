package main

import (
	"context"

	"cardmarket-monitor/cmd/cardmarket-cli/commands"
	"cardmarket-monitor/internal/components/telemetry"
)

func main() {
	ctx := context.Background()
	otel, _ := telemetry.SetupOtelFromEnv(ctx, "cardmarket-cli")
	defer otel.Shutdown(context.Background())
	commands.ExecuteContext(ctx)
}
