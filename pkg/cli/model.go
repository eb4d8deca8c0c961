package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mchmarny/vinecop/pkg/data"
	"github.com/mchmarny/vinecop/pkg/vinecop"
	"github.com/urfave/cli/v3"
)

const (
	flagName  = "name"
	flagLimit = "limit"
)

func newModelCmd() *cli.Command {
	return &cli.Command{
		Name:  "model",
		Usage: "Manage models in the local store",
		Commands: []*cli.Command{
			{
				Name:      "save",
				Usage:     "Validate a model and store it",
				ArgsUsage: "FILE|URL",
				Action:    cmdModelSave,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagName,
						Aliases:  []string{"n"},
						Usage:    "Name of the stored model",
						Required: true,
					},
					newStrictFlag(),
				},
			},
			{
				Name:   "list",
				Usage:  "List stored models, most recent first",
				Action: cmdModelList,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagLimit,
						Usage: "Maximum number of models to list",
						Value: data.ModelListLimitDefault,
					},
				},
			},
			{
				Name:      "get",
				Usage:     "Print or export a stored model",
				ArgsUsage: "ID",
				Action:    cmdModelGet,
				Flags: []cli.Flag{
					newOutFlag(),
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a stored model",
				ArgsUsage: "ID",
				Action:    cmdModelDelete,
			},
			{
				Name:   "state",
				Usage:  "Show store statistics",
				Action: cmdModelState,
			},
		},
	}
}

type storedModel struct {
	data.ModelRecord `yaml:",inline"`
	Model             *vinecop.Vinecop `json:"model" yaml:"model"`
}

func cmdModelSave(ctx context.Context, cmd *cli.Command) error {
	src, err := singleArg(cmd, "FILE|URL")
	if err != nil {
		return err
	}

	cfg := getConfig(cmd)
	v, err := loadModel(ctx, cfg, src, cmd.Bool(flagStrict))
	if err != nil {
		return err
	}

	db, err := cfg.DB()
	if err != nil {
		return err
	}

	r, err := data.SaveModel(db, cmd.String(flagName), src, v)
	if err != nil {
		return err
	}
	slog.Debug("model saved", "id", r.ID, "name", r.Name)
	return encode(cmd, r)
}

func cmdModelList(_ context.Context, cmd *cli.Command) error {
	db, err := getConfig(cmd).DB()
	if err != nil {
		return err
	}

	list, err := data.ListModels(db, cmd.Int(flagLimit))
	if err != nil {
		return err
	}
	return encode(cmd, list)
}

func cmdModelGet(_ context.Context, cmd *cli.Command) error {
	id, err := singleArg(cmd, "ID")
	if err != nil {
		return err
	}

	db, err := getConfig(cmd).DB()
	if err != nil {
		return err
	}

	r, v, err := data.GetModel(db, id)
	if err != nil {
		return err
	}

	if out := cmd.String(flagOut); out != "" {
		if err := vinecop.WriteFile(out, v); err != nil {
			return err
		}
		slog.Info("model written", "path", out, "id", r.ID)
		return nil
	}
	return encode(cmd, &storedModel{ModelRecord: *r, Model: v})
}

func cmdModelDelete(_ context.Context, cmd *cli.Command) error {
	id, err := singleArg(cmd, "ID")
	if err != nil {
		return err
	}

	db, err := getConfig(cmd).DB()
	if err != nil {
		return err
	}

	if err := data.DeleteModel(db, id); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			slog.Warn("model not found", "id", id)
		}
		return err
	}
	slog.Info("model deleted", "id", id)
	return nil
}

func cmdModelState(_ context.Context, cmd *cli.Command) error {
	db, err := getConfig(cmd).DB()
	if err != nil {
		return err
	}

	state, err := data.GetDataState(db)
	if err != nil {
		return err
	}
	return encode(cmd, state)
}
