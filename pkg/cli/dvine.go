package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mchmarny/vinecop/pkg/vinecop"
	"github.com/urfave/cli/v3"
)

const (
	flagDim   = "dim"
	flagOrder = "order"
	flagOut   = "out"

	// maxDVineDim bounds the d x d structure matrix the command allocates.
	maxDVineDim = 500
)

func newOutFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagOut,
		Aliases: []string{"o"},
		Usage:   "Write the model to this file (.json, .yaml or .yml) instead of stdout",
	}
}

func newDVineCmd() *cli.Command {
	return &cli.Command{
		Name:   "dvine",
		Usage:  "Generate a D-vine model with independence pair copulas",
		Action: cmdDVine,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    flagDim,
				Aliases: []string{"d"},
				Usage:   "Number of variables",
			},
			&cli.IntSliceFlag{
				Name:  flagOrder,
				Usage: "Variable order along the path, a permutation of 1..dim (default: 1..dim)",
			},
			newOutFlag(),
		},
	}
}

func dvineOrder(dim int, order []int) ([]int, error) {
	if dim > maxDVineDim || len(order) > maxDVineDim {
		return nil, fmt.Errorf("--dim must be at most %d, got %d", maxDVineDim, max(dim, len(order)))
	}
	if len(order) == 0 {
		if dim < 2 {
			return nil, fmt.Errorf("--dim must be at least 2, got %d", dim)
		}
		order = make([]int, dim)
		for i := range order {
			order[i] = i + 1
		}
		return order, nil
	}

	if dim != 0 && dim != len(order) {
		return nil, fmt.Errorf("--order has %d entries, expected %d", len(order), dim)
	}
	seen := make(map[int]bool, len(order))
	for _, o := range order {
		if o < 1 || o > len(order) || seen[o] {
			return nil, fmt.Errorf("--order must be a permutation of 1..%d, got %v", len(order), order)
		}
		seen[o] = true
	}
	return order, nil
}

func newDVine(order []int) (*vinecop.Vinecop, error) {
	m, err := vinecop.DVineMatrix(order)
	if err != nil {
		return nil, err
	}
	return vinecop.NewIndependence(m.Rows(), vinecop.WithStrictMatrix())
}

func cmdDVine(_ context.Context, cmd *cli.Command) error {
	if !cmd.IsSet(flagDim) && !cmd.IsSet(flagOrder) {
		return errors.New("--dim or --order is required")
	}

	order, err := dvineOrder(cmd.Int(flagDim), cmd.IntSlice(flagOrder))
	if err != nil {
		return err
	}

	v, err := newDVine(order)
	if err != nil {
		return err
	}

	if out := cmd.String(flagOut); out != "" {
		if err := vinecop.WriteFile(out, v); err != nil {
			return err
		}
		slog.Info("model written", "path", out, "dim", v.Dim())
		return nil
	}
	return encode(cmd, v)
}
