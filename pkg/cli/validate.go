package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func newValidateCmd() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate one or more vine copula models",
		ArgsUsage: "FILE|URL [FILE|URL...]",
		Action:    cmdValidate,
		Flags: []cli.Flag{
			newStrictFlag(),
		},
	}
}

type validationResult struct {
	Source string `json:"source" yaml:"source"`
	Valid  bool   `json:"valid" yaml:"valid"`
	Dim    int    `json:"dim,omitempty" yaml:"dim,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// validateSources loads every source concurrently. Results keep the input
// order; one invalid source does not stop the others, a canceled context does.
func validateSources(ctx context.Context, cfg *appConfig, sources []string, strict bool) ([]*validationResult, error) {
	results := make([]*validationResult, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := &validationResult{Source: src}
			v, err := loadModel(ctx, cfg, src, strict)
			if err != nil {
				slog.Debug("invalid model", "source", src, "error", err)
				r.Error = err.Error()
			} else {
				r.Valid = true
				r.Dim = v.Dim()
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validating models: %w", err)
	}

	return results, nil
}

func cmdValidate(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() == 0 {
		return errors.New("at least one FILE|URL argument is required")
	}

	results, err := validateSources(ctx, getConfig(cmd), cmd.Args().Slice(), cmd.Bool(flagStrict))
	if err != nil {
		return err
	}
	if err := encode(cmd, results); err != nil {
		return err
	}

	var invalid int
	for _, r := range results {
		if !r.Valid {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d models are invalid", invalid, len(results))
	}
	return nil
}
