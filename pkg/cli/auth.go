package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mchmarny/vinecop/pkg/auth"
	"github.com/urfave/cli/v3"
)

const (
	flagToken = "token"
	flagClear = "clear"
)

func newAuthCmd() *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Store the bearer token used to fetch models from the registry",
		Action: cmdAuth,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagToken,
				Usage:   "Registry bearer token (prompted for when omitted)",
				Sources: cli.EnvVars("VINECOP_TOKEN"),
			},
			&cli.BoolFlag{
				Name:  flagClear,
				Usage: "Remove the stored registry token",
			},
		},
	}
}

func cmdAuth(_ context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	w := cmd.Root().Writer

	if cmd.Bool(flagClear) {
		if err := auth.DeleteToken(cfg.Dir); err != nil {
			return err
		}
		fmt.Fprintln(w, "Token removed")
		return nil
	}

	token := cmd.String(flagToken)
	if token == "" {
		fmt.Fprint(w, "Paste the registry token and hit enter:\n>")
		line, err := bufio.NewReader(cmd.Root().Reader).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading user input: %w", err)
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		return errors.New("token is required")
	}

	if err := auth.SaveToken(cfg.Dir, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Fprintln(w, "Token saved")
	return nil
}
