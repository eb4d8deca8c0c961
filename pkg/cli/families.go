package cli

import (
	"context"
	"fmt"

	"github.com/mchmarny/vinecop/pkg/bicop"
	"github.com/urfave/cli/v3"
)

func newFamiliesCmd() *cli.Command {
	return &cli.Command{
		Name:   "families",
		Usage:  "List the supported pair copula families",
		Action: cmdFamilies,
	}
}

type familyView struct {
	Name      string        `json:"name" yaml:"name"`
	Code      int           `json:"code" yaml:"code"`
	Params    string        `json:"params" yaml:"params"`
	Bounds    []bicop.Bound `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	Rotations []int         `json:"rotations" yaml:"rotations,flow"`
	Groups    []string      `json:"groups" yaml:"groups,flow"`
}

func newFamilyView(f bicop.Family) *familyView {
	lo, hi := f.NumParams()
	params := fmt.Sprintf("%d", lo)
	switch {
	case hi < 0:
		params = fmt.Sprintf("%d+", lo)
	case hi != lo:
		params = fmt.Sprintf("%d-%d", lo, hi)
	}

	return &familyView{
		Name:      f.String(),
		Code:      int(f),
		Params:    params,
		Bounds:    f.Bounds(),
		Rotations: f.Rotations(),
		Groups:    f.Groups(),
	}
}

func listFamilies() []*familyView {
	list := make([]*familyView, 0, len(bicop.Families()))
	for _, f := range bicop.Families() {
		list = append(list, newFamilyView(f))
	}
	return list
}

func cmdFamilies(_ context.Context, cmd *cli.Command) error {
	return encode(cmd, listFamilies())
}
