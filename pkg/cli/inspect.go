package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strings"

	"github.com/mchmarny/vinecop/pkg/auth"
	"github.com/mchmarny/vinecop/pkg/net"
	"github.com/mchmarny/vinecop/pkg/vinecop"
	"github.com/urfave/cli/v3"
)

const (
	noEdge = -1

	flagStrict = "strict"
	flagTree   = "tree"
	flagEdge   = "edge"
)

func newStrictFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  flagStrict,
		Usage: "Require a proper R-vine structure matrix (antidiagonal, nesting and proximity checks)",
	}
}

func newInspectCmd() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Load, validate and summarize a vine copula model",
		ArgsUsage: "FILE|URL",
		Action:    cmdInspect,
		Flags: []cli.Flag{
			newStrictFlag(),
			&cli.IntFlag{
				Name:  flagTree,
				Usage: "Tree index of a single edge to show (0-based)",
				Value: noEdge,
			},
			&cli.IntFlag{
				Name:  flagEdge,
				Usage: "Edge index of a single edge to show (0-based)",
				Value: noEdge,
			},
		},
	}
}

type modelSummary struct {
	Dim        int           `json:"dim" yaml:"dim"`
	Strict     bool          `json:"strict" yaml:"strict"`
	NumParams  int           `json:"num_params" yaml:"num_params"`
	Order      []int         `json:"order" yaml:"order,flow"`
	Matrix     [][]int       `json:"matrix" yaml:"matrix,flow"`
	MaxMatrix  [][]int       `json:"max_matrix,omitempty" yaml:"max_matrix,omitempty,flow"`
	Families   [][]string    `json:"families" yaml:"families,flow"`
	Rotations  [][]int       `json:"rotations" yaml:"rotations,flow"`
	Parameters [][][]float64 `json:"parameters" yaml:"parameters,flow"`
	Taus       [][]*float64  `json:"taus" yaml:"taus,flow"`
}

func newModelSummary(v *vinecop.Vinecop) *modelSummary {
	fams := v.AllFamilies()
	names := make([][]string, len(fams))
	for t, row := range fams {
		names[t] = make([]string, len(row))
		for e, f := range row {
			names[t][e] = f.String()
		}
	}

	taus := v.AllTaus()
	tauPtrs := make([][]*float64, len(taus))
	for t, row := range taus {
		tauPtrs[t] = make([]*float64, len(row))
		for e, tau := range row {
			if !math.IsNaN(tau) {
				tauPtrs[t][e] = &tau
			}
		}
	}

	var maxMatrix [][]int
	if !v.IsEmpty() {
		maxMatrix = v.Structure().MaxMatrix()
	}

	return &modelSummary{
		Dim:        v.Dim(),
		Strict:     v.Strict(),
		NumParams:  v.NumParams(),
		Order:      v.Order(),
		Matrix:     v.Matrix(),
		MaxMatrix:  maxMatrix,
		Families:   names,
		Rotations:  v.AllRotations(),
		Parameters: v.AllParameters(),
		Taus:       tauPtrs,
	}
}

type edgeView struct {
	Tree int `json:"tree" yaml:"tree"`
	Edge int `json:"edge" yaml:"edge"`
	bicopView `yaml:",inline"`
}

func isURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// resolveSource turns a model name into a registry URL when it is neither a
// URL nor an existing file and a registry is configured.
func resolveSource(cfg *appConfig, src string) string {
	if isURL(src) || cfg.RegistryURL == "" {
		return src
	}
	if _, err := os.Stat(src); err == nil {
		return src
	}
	return strings.TrimRight(cfg.RegistryURL, "/") + "/" + strings.TrimLeft(src, "/")
}

// fromRegistry reports whether src lives under the configured registry URL.
func fromRegistry(cfg *appConfig, src string) bool {
	base := strings.TrimRight(cfg.RegistryURL, "/")
	if base == "" {
		return false
	}
	return src == base || strings.HasPrefix(src, base+"/")
}

// httpClientFor attaches the stored token only to registry requests.
func httpClientFor(ctx context.Context, cfg *appConfig, src string) (*http.Client, error) {
	if !fromRegistry(cfg, src) {
		return net.GetHTTPClient()
	}
	token, err := auth.GetToken(cfg.Dir)
	if err == nil {
		return net.GetOAuthClient(ctx, token)
	}
	if !errors.Is(err, auth.ErrNoToken) {
		slog.Debug("error reading registry token", "error", err)
	}
	return net.GetHTTPClient()
}

// loadModel reads a model from a file or URL and validates it at the
// requested strictness.
func loadModel(ctx context.Context, cfg *appConfig, src string, strict bool) (*vinecop.Vinecop, error) {
	src = resolveSource(cfg, src)

	var (
		v   *vinecop.Vinecop
		err error
	)
	if isURL(src) {
		client, cerr := httpClientFor(ctx, cfg, src)
		if cerr != nil {
			return nil, fmt.Errorf("creating HTTP client: %w", cerr)
		}
		slog.Debug("fetching model", "url", src)
		b, ferr := net.Fetch(ctx, client, src)
		if ferr != nil {
			return nil, ferr
		}
		v, err = vinecop.Parse(b)
	} else {
		v, err = vinecop.ReadFile(src)
	}
	if err != nil {
		return nil, err
	}

	if (strict || cfg.Strict) && !v.Strict() && !v.IsEmpty() {
		return vinecop.NewFromPairCopulas(v.AllPairCopulas(), v.Matrix(), vinecop.WithStrictMatrix())
	}
	return v, nil
}

func singleArg(cmd *cli.Command, name string) (string, error) {
	if cmd.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one %s argument, got %d", name, cmd.NArg())
	}
	return cmd.Args().First(), nil
}

func cmdInspect(ctx context.Context, cmd *cli.Command) error {
	src, err := singleArg(cmd, "FILE|URL")
	if err != nil {
		return err
	}

	v, err := loadModel(ctx, getConfig(cmd), src, cmd.Bool(flagStrict))
	if err != nil {
		return err
	}

	tree, edge := cmd.Int(flagTree), cmd.Int(flagEdge)
	if tree == noEdge && edge == noEdge {
		return encode(cmd, newModelSummary(v))
	}

	pc, err := v.PairCopula(tree, edge)
	if err != nil {
		return err
	}
	return encode(cmd, &edgeView{Tree: tree, Edge: edge, bicopView: *newBicopView(pc)})
}
