package app

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errRejected = errors.New("request rejected by garaged")

const (
	defaultServer  = "http://localhost:8080"
	defaultTimeout = 15 * time.Second
)

type rootOptions struct {
	server  string
	timeout time.Duration
}

func (o *rootOptions) client() *client {
	return newClient(o.server, o.timeout)
}

// NewGaragectlCommand returns the garagectl root command.
func NewGaragectlCommand() *cobra.Command {
	opts := &rootOptions{}
	v := viper.New()
	v.SetEnvPrefix("GARAGE")
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "garagectl",
		Short:         "Command line client for garaged",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("server") && v.IsSet("server") {
				opts.server = v.GetString("server")
			}
			if _, err := url.ParseRequestURI(opts.server); err != nil {
				return fmt.Errorf("invalid --server %q: %w", opts.server, err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.server, "server", "s", defaultServer, "Address of garaged. Also read from GARAGE_SERVER.")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "Timeout for each request.")

	cmd.AddCommand(
		newListCommand(opts),
		newShowCommand(opts),
		newAddCommand(opts),
		newRemoveCommand(opts),
		newActionCommand(opts),
		newSelectCommand(opts),
		newMaintenanceCommand(opts),
		newRemindersCommand(opts),
		newWeatherCommand(opts),
		newWatchCommand(),
	)
	return cmd
}

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the vehicles in the garage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := opts.client()

			var vehicles []vehicle
			if err := c.do(ctx, http.MethodGet, "/api/vehicles", nil, nil, &vehicles); err != nil {
				return err
			}
			var sel selection
			if err := c.do(ctx, http.MethodGet, "/api/selection", nil, nil, &sel); err != nil {
				return err
			}

			if len(vehicles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "The garage is empty.")
				return nil
			}
			table := uitable.New()
			table.MaxColWidth = 40
			table.AddRow("", "ID", "KIND", "MODEL", "COLOR", "STATE", "SPEED", "EXTRA")
			for _, v := range vehicles {
				mark := ""
				if v.ID == sel.ID {
					mark = "*"
				}
				table.AddRow(mark, v.ID, v.Kind, v.Model, v.Color, v.State, fmt.Sprintf("%g/%g", v.Speed, v.MaxSpeed), extra(v))
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

func extra(v vehicle) string {
	switch {
	case v.TurboUsed != nil:
		if *v.TurboUsed {
			return "turbo used"
		}
		return "turbo ready"
	case v.CargoCapacity != nil && v.CurrentCargo != nil:
		return fmt.Sprintf("cargo %g/%gkg", *v.CurrentCargo, *v.CargoCapacity)
	}
	return ""
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a vehicle and its maintenance log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := opts.client()
			id := url.PathEscape(args[0])

			var v vehicle
			if err := c.do(ctx, http.MethodGet, "/api/vehicles/"+id, nil, nil, &v); err != nil {
				return err
			}
			var h history
			if err := c.do(ctx, http.MethodGet, "/api/vehicles/"+id+"/maintenance", nil, nil, &h); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			table := uitable.New()
			table.AddRow("ID:", v.ID)
			table.AddRow("Kind:", v.Kind)
			table.AddRow("Model:", v.Model)
			table.AddRow("Color:", v.Color)
			table.AddRow("State:", v.State)
			table.AddRow("Speed:", fmt.Sprintf("%g of %g km/h", v.Speed, v.MaxSpeed))
			if e := extra(v); e != "" {
				table.AddRow("Extra:", e)
			}
			fmt.Fprintln(out, table)

			printRecords(out, "Upcoming appointments", h.Upcoming)
			printRecords(out, "Service history", h.Past)
			return nil
		},
	}
}

func printRecords(out io.Writer, title string, records []record) {
	fmt.Fprintf(out, "\n%s:\n", title)
	if len(records) == 0 {
		fmt.Fprintln(out, "  none")
		return
	}
	table := uitable.New()
	table.MaxColWidth = 80
	for _, r := range records {
		table.AddRow("  "+r.ID, r.Text)
	}
	fmt.Fprintln(out, table)
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	var kind, model, color string
	var capacity float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a vehicle to the garage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"kind": kind, "model": model, "color": color}
			if capacity > 0 {
				body["cargoCapacity"] = capacity
			}
			var res result
			err := opts.client().do(cmd.Context(), http.MethodPost, "/api/vehicles", nil, body, &res)
			return printResult(cmd.OutOrStdout(), res, err)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "Car", "Vehicle kind: Car, SportsCar or Truck.")
	cmd.Flags().StringVar(&model, "model", "", "Vehicle model.")
	cmd.Flags().StringVar(&color, "color", "", "Vehicle color.")
	cmd.Flags().Float64Var(&capacity, "capacity", 0, "Cargo capacity in kg, trucks only.")
	return cmd
}

func newRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a vehicle from the garage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res result
			err := opts.client().do(cmd.Context(), http.MethodDelete, "/api/vehicles/"+url.PathEscape(args[0]), nil, nil, &res)
			return printResult(cmd.OutOrStdout(), res, err)
		},
	}
}

func newActionCommand(opts *rootOptions) *cobra.Command {
	var amount float64

	cmd := &cobra.Command{
		Use:       "action ID NAME",
		Short:     "Run an action on a vehicle",
		Long:      "Run an action on a vehicle. NAME is one of turn-on, turn-off, accelerate, brake, turbo, load or unload.",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"turn-on", "turn-off", "accelerate", "brake", "turbo", "load", "unload"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var body any
			if cmd.Flags().Changed("amount") {
				body = map[string]float64{"amount": amount}
			}
			path := "/api/vehicles/" + url.PathEscape(args[0]) + "/actions/" + url.PathEscape(args[1])
			var res result
			err := opts.client().do(cmd.Context(), http.MethodPost, path, nil, body, &res)
			return printResult(cmd.OutOrStdout(), res, err)
		},
	}
	cmd.Flags().Float64Var(&amount, "amount", 0, "Cargo amount in kg for load and unload.")
	return cmd
}

func newSelectCommand(opts *rootOptions) *cobra.Command {
	var clearSel bool

	cmd := &cobra.Command{
		Use:   "select [ID]",
		Short: "Select a vehicle, or show the current selection",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := opts.client()
			out := cmd.OutOrStdout()

			var sel selection
			var err error
			switch {
			case clearSel:
				err = c.do(ctx, http.MethodDelete, "/api/selection", nil, nil, &sel)
			case len(args) == 1:
				err = c.do(ctx, http.MethodPut, "/api/selection", nil, map[string]string{"id": args[0]}, &sel)
			default:
				err = c.do(ctx, http.MethodGet, "/api/selection", nil, nil, &sel)
			}
			if err != nil {
				return err
			}

			if sel.Vehicle == nil {
				fmt.Fprintln(out, "No vehicle selected.")
			} else {
				fmt.Fprintf(out, "Selected %s %s (%s).\n", sel.Vehicle.Model, sel.Vehicle.Color, sel.ID)
			}
			if sel.Warning != "" {
				fmt.Fprintln(out, "Warning:", sel.Warning)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearSel, "clear", false, "Clear the selection.")
	return cmd
}

func newMaintenanceCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Manage maintenance records",
	}

	var date, service, cost, notes string
	add := &cobra.Command{
		Use:   "add ID",
		Short: "Record a service or schedule an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"timestamp": date, "serviceType": service, "cost": cost, "notes": notes}
			var res result
			err := opts.client().do(cmd.Context(), http.MethodPost, "/api/vehicles/"+url.PathEscape(args[0])+"/maintenance", nil, body, &res)
			return printResult(cmd.OutOrStdout(), res, err)
		},
	}
	add.Flags().StringVar(&date, "date", "", "Date and time, e.g. 2025-06-10T09:30.")
	add.Flags().StringVar(&service, "type", "", "Service type.")
	add.Flags().StringVar(&cost, "cost", "0", "Cost, e.g. 150,50.")
	add.Flags().StringVar(&notes, "notes", "", "Optional notes.")

	remove := &cobra.Command{
		Use:   "remove ID RECORD_ID",
		Short: "Delete a maintenance record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/vehicles/" + url.PathEscape(args[0]) + "/maintenance/" + url.PathEscape(args[1])
			var res result
			err := opts.client().do(cmd.Context(), http.MethodDelete, path, nil, nil, &res)
			return printResult(cmd.OutOrStdout(), res, err)
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}

func newRemindersCommand(opts *rootOptions) *cobra.Command {
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "List appointments due soon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if window > 0 {
				q.Set("window", window.String())
			}
			var reminders []reminder
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/reminders", q, nil, &reminders); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(reminders) == 0 {
				fmt.Fprintln(out, "No upcoming appointments.")
				return nil
			}
			for _, r := range reminders {
				fmt.Fprintln(out, r.Message)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&window, "window", 0, "How far ahead to look, e.g. 48h. Defaults to the server setting.")
	return cmd
}

func newWeatherCommand(opts *rootOptions) *cobra.Command {
	var city, lat, lon string

	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Show the 5 day forecast for a city or coordinates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if city != "" {
				q.Set("city", city)
			} else {
				q.Set("lat", lat)
				q.Set("lon", lon)
			}
			ctx := cmd.Context()
			c := opts.client()

			var days []dailyWeather
			if err := c.do(ctx, http.MethodGet, "/api/weather/daily", q, nil, &days); err != nil {
				return err
			}
			table := uitable.New()
			table.AddRow("DATE", "MIN", "MAX", "CONDITIONS")
			for _, d := range days {
				table.AddRow(d.Date, fmt.Sprintf("%.1f°", d.TempMin), fmt.Sprintf("%.1f°", d.TempMax), d.Description)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, table)

			var report weatherReport
			if err := c.do(ctx, http.MethodGet, "/api/weather", q, nil, &report); err == nil && report.Tip != "" {
				fmt.Fprintln(out, "Tip:", report.Tip)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "City name.")
	cmd.Flags().StringVar(&lat, "lat", "", "Latitude.")
	cmd.Flags().StringVar(&lon, "lon", "", "Longitude.")
	return cmd
}

// printResult shows a domain result. Rejected actions still print their
// message and make the command fail.
func printResult(out io.Writer, res result, err error) error {
	if res.Message != "" {
		fmt.Fprintln(out, res.Message)
	}
	if res.Warning != "" {
		fmt.Fprintln(out, "Warning:", res.Warning)
	}
	if err != nil && res.Message != "" {
		return errRejected
	}
	return err
}
