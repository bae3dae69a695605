package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/i474232898/openwx/internal/session"
	"github.com/i474232898/openwx/internal/store"
	"github.com/i474232898/openwx/internal/ui/widget"
	"github.com/i474232898/openwx/internal/weather"
)

func newWeatherCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weather <query>",
		Short: "Show current conditions for a place, \"lat,lon\" or auto:ip",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			app, err := loadApp(ctx, stderrLogger)
			if err != nil {
				return err
			}
			defer app.Close()

			reading, err := app.Service.GetWeather(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printReading(cmd.OutOrStdout(), reading)
			return nil
		},
	}
}

func newForecastCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "forecast <query>",
		Short: "Show a daily forecast",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			app, err := loadApp(ctx, stderrLogger)
			if err != nil {
				return err
			}
			defer app.Close()

			if !cmd.Flags().Changed("days") {
				days = app.Config.ForecastDays
			}
			forecast, err := app.Service.GetForecast(ctx, strings.Join(args, " "), days)
			if err != nil {
				return err
			}
			printForecast(cmd.OutOrStdout(), forecast)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 3, "number of days (1-7)")
	return cmd
}

func newFavoritesCmd() *cobra.Command {
	favorites := &cobra.Command{Use: "favorites", Short: "Manage saved locations"}

	favorites.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved locations in order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), stderrLogger)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			labels := app.Favorites.List()
			if len(labels) == 0 {
				fmt.Fprintln(out, widget.Muted.Render("No favorites saved."))
				return nil
			}
			for i, l := range labels {
				fmt.Fprintf(out, "%d. %s\n", i+1, l)
			}
			return nil
		},
	})

	favorites.AddCommand(&cobra.Command{
		Use:   "add <label>",
		Short: "Save a location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd.Context(), stderrLogger)
			if err != nil {
				return err
			}
			defer app.Close()

			label := strings.Join(args, " ")
			added, err := app.Favorites.Add(cmd.Context(), label)
			if err := persistWarning(cmd, err); err != nil {
				return err
			}
			if !added {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already saved.\n", strings.TrimSpace(label))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s.\n", strings.TrimSpace(label))
			return nil
		},
	})

	favorites.AddCommand(&cobra.Command{
		Use:   "remove <label>",
		Short: "Remove a saved location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd.Context(), stderrLogger)
			if err != nil {
				return err
			}
			defer app.Close()

			removed, err := app.Favorites.Remove(cmd.Context(), strings.Join(args, " "))
			if err := persistWarning(cmd, err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d.\n", removed)
			return nil
		},
	})
	return favorites
}

// persistWarning prints storage failures and swallows them; the change itself was made.
func persistWarning(cmd *cobra.Command, err error) error {
	var persistErr *store.PersistError
	if errors.As(err, &persistErr) {
		fmt.Fprintln(cmd.ErrOrStderr(), widget.Alert.Render("warning: "+persistErr.Error()))
		return nil
	}
	return err
}

func printReading(w io.Writer, r weather.Reading) {
	v := session.RenderReading(r, weather.Celsius)
	fmt.Fprintln(w, widget.Title.Render(v.Title)+"  "+widget.Muted.Render(v.LocalTime))
	fmt.Fprintln(w, widget.Temp.Render(v.Temperature)+"  "+v.Condition)
	fmt.Fprintln(w, widget.Muted.Render(v.FeelsLike+" · Humidity "+v.Humidity+" · Wind "+v.Wind))
}

func printForecast(w io.Writer, f weather.Forecast) {
	for _, d := range f {
		fmt.Fprintf(w, "%s  %s  %3d%%  %5.1f km/h  %s\n",
			widget.Title.Render(d.Date),
			widget.Temp.Render(weather.FormatTemperature(d.AvgTemperatureC, weather.Celsius)),
			d.AvgHumidityPct,
			d.MaxWindKph,
			d.ConditionText,
		)
	}
}
