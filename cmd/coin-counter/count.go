package main

import (
	"fmt"
	"io"

	imgio "github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/coin-counter/internal/coins"
	apperrors "github.com/ironsheep/coin-counter/internal/errors"
	"github.com/ironsheep/coin-counter/internal/imaging"
	"github.com/ironsheep/coin-counter/internal/logger"
	"github.com/ironsheep/coin-counter/internal/server"
)

func countCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "count <image>",
		Short: "Count the coins in one photo and print the total",
		Long: `Count detects coins in the image, classifies them with the configured
denomination table and prints the total value. With --output the annotated
image is written too; the format follows the file extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coinsCfg, err := cfg.Coins()
			if err != nil {
				return err
			}
			return runCount(cmd.OutOrStdout(), coinsCfg, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the annotated image to this path")
	return cmd
}

func runCount(out io.Writer, coinsCfg coins.Config, path, output string) error {
	img, _, err := imaging.DecodeFile(path)
	if err != nil {
		return err
	}

	counter, err := coins.New(coinsCfg)
	if err != nil {
		return err
	}

	res, err := counter.Count(img)
	if err != nil {
		return err
	}

	for _, c := range res.Coins {
		logger.WithFields(logrus.Fields{
			"x":      c.Circle.Center.X,
			"y":      c.Circle.Center.Y,
			"radius": c.Circle.Radius,
			"value":  c.Value.StringFixed(2),
		}).Debug("coin")
	}

	if output != "" {
		if err := imgio.Save(res.Annotated, output); err != nil {
			return apperrors.NewIOError("failed to save annotated image", err)
		}
		logger.WithField("path", output).Info("annotated image written")
	}

	if res.Detected == 0 {
		fmt.Fprintln(out, server.NoCoinsMessage)
		return nil
	}
	fmt.Fprintf(out, "Total Value of Coins: %s\n", coins.FormatValue(coinsCfg.Annotate.CurrencySymbol, res.Total))
	if n := res.Unmatched(); n > 0 {
		fmt.Fprintf(out, "%d circle(s) matched no denomination\n", n)
	}
	return nil
}
