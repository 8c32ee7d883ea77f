package submission

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/Al-assad/potamoi-experiment/internal/resolver"
)

// Launcher hands a resolved configuration and pod-template path to the
// Flink launcher. Argument construction only: no retry, no output
// parsing; transient failures are the Submission Engine's concern.
type Launcher interface {
	LaunchApplicationCluster(ctx context.Context, cfg *resolver.Configuration, podTemplatePath string) error
	LaunchSessionCluster(ctx context.Context, cfg *resolver.Configuration, podTemplatePath string) error
}

// ProcessLauncher shells out to the `flink` CLI binary shipped by the
// upstream Flink distribution.
type ProcessLauncher struct {
	// FlinkBin is the path to the `flink` executable; defaults to "flink"
	// (resolved via PATH) when empty.
	FlinkBin string
}

func (l *ProcessLauncher) bin() string {
	if l.FlinkBin == "" {
		return "flink"
	}
	return l.FlinkBin
}

// LaunchApplicationCluster runs `flink run-application -t
// kubernetes-application -D k=v ... -D kubernetes.pod-template-file=<path>`.
func (l *ProcessLauncher) LaunchApplicationCluster(ctx context.Context, cfg *resolver.Configuration, podTemplatePath string) error {
	return l.run(ctx, "run-application", cfg, podTemplatePath)
}

// LaunchSessionCluster runs `flink run -t kubernetes-session -D k=v ...`.
func (l *ProcessLauncher) LaunchSessionCluster(ctx context.Context, cfg *resolver.Configuration, podTemplatePath string) error {
	return l.run(ctx, "run", cfg, podTemplatePath)
}

// buildArgs renders the flink CLI argument list for one launch: the
// subcommand, "-t <execution.target>", then every remaining config key
// as a repeated "-D k=v" flag, then the pod-template path if set.
func buildArgs(subcommand string, cfg *resolver.Configuration, podTemplatePath string) []string {
	target, _ := cfg.Get("execution.target")
	args := []string{subcommand, "-t", target}
	for _, k := range cfg.Keys() {
		if k == "execution.target" {
			continue
		}
		v, _ := cfg.Get(k)
		args = append(args, "-D", fmt.Sprintf("%s=%s", k, v))
	}
	if podTemplatePath != "" {
		args = append(args, "-D", "kubernetes.pod-template-file="+podTemplatePath)
	}
	return args
}

func (l *ProcessLauncher) run(ctx context.Context, subcommand string, cfg *resolver.Configuration, podTemplatePath string) error {
	args := buildArgs(subcommand, cfg, podTemplatePath)
	cmd := exec.CommandContext(ctx, l.bin(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("flink launcher: %w: %s", err, stderr.String())
	}
	return nil
}
