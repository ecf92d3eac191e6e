package cmd

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"recipecost"
	recipecostrpc "recipecost/rpc"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the default unit conversions that are not stored yet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		report, err := recipecost.SeedConversions(cmd.Context(), e.db, recipecost.DefaultConversions())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "inserted %d, skipped %d, rejected %d\n",
			len(report.Inserted), len(report.Skipped), len(report.Rejected))
		return nil
	},
}

var factorCmd = &cobra.Command{
	Use:   "factor <from> <to>",
	Short: "Print the stored factor that converts one unit into another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		factor, err := recipecost.GetConversionFactor(cmd.Context(), e.db, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "1 %s = %g %s\n", args[0], factor, args[1])
		return nil
	},
}

var costAt string

var costCmd = &cobra.Command{
	Use:   "cost <dish-id>",
	Short: "Cost a dish line by line and show its margin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dishID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("dish id: %w", err)
		}
		var at time.Time
		if costAt != "" {
			if at, err = time.Parse(time.RFC3339, costAt); err != nil {
				return fmt.Errorf("--at: %w", err)
			}
		}

		ctx := cmd.Context()
		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		r, err := e.restaurant(ctx)
		if err != nil {
			return err
		}
		var dc recipecost.DishCost
		if at.IsZero() {
			dc, err = recipecost.CostDish(ctx, e.db, r.UUID, dishID)
		} else {
			dc, err = recipecost.CostDishAt(ctx, e.db, r.UUID, dishID, at)
		}
		if err != nil {
			return err
		}
		printDishCost(cmd, dc)
		return nil
	},
}

func init() {
	costCmd.Flags().StringVar(&costAt, "at", "", "cost with the prices in effect at this RFC3339 time")
}

func printDishCost(cmd *cobra.Command, dc recipecost.DishCost) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\n\n", dc.DishName)
	fmt.Fprintln(w, "INGREDIENT\tQTY\tUNIT\tNATIVE QTY\tUNIT COST\tCOST")
	for _, lc := range dc.Lines {
		fmt.Fprintf(w, "%s\t%g\t%s\t%g %s\t%s\t%s\n",
			lc.IngredientName, lc.Quantity, lc.Unit, lc.NativeQuantity, lc.NativeUnit, lc.CostPerUnit, lc.Cost)
	}
	fmt.Fprintf(w, "\t\t\t\tTOTAL\t%s\n", dc.Total)
	if dc.Price != nil {
		fmt.Fprintf(w, "\t\t\t\tPRICE\t%s\n", *dc.Price)
	}
	if dc.Margin != nil {
		if dc.Margin.PercentApplicable {
			fmt.Fprintf(w, "\t\t\t\tMARGIN\t%s (%.2f%%)\n", dc.Margin.Cents, dc.Margin.Percent)
		} else {
			fmt.Fprintf(w, "\t\t\t\tMARGIN\t%s (n/a)\n", dc.Margin.Cents)
		}
	}
	w.Flush()
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve costing operations over TCP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		var lc net.ListenConfig
		ln, err := lc.Listen(ctx, "tcp", e.cfg.Listen)
		if err != nil {
			return err
		}
		processor := recipecostrpc.NewServerProcessor(e.db, e.logger)
		err = processor.Serve(ctx, ln)
		e.logger.Info("rpc server stopped", zap.Error(err))
		return err
	},
}

func init() {
	serveCmd.Flags().String("listen", "127.0.0.1:7070", "TCP address to listen on")
	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}
