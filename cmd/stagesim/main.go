package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/san-kum/stagesim/internal/config"
	"github.com/san-kum/stagesim/internal/experiment"
	"github.com/san-kum/stagesim/internal/export"
	"github.com/san-kum/stagesim/internal/integrators"
	"github.com/san-kum/stagesim/internal/logging"
	"github.com/san-kum/stagesim/internal/metrics"
	"github.com/san-kum/stagesim/internal/physics"
	"github.com/san-kum/stagesim/internal/storage"
	"github.com/san-kum/stagesim/internal/trajectory"
	"github.com/san-kum/stagesim/internal/viz"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/floats"
)

var (
	logger log.Logger

	configFile string
	preset     string
	params     []string
	noSave     bool
	chartsDir  string
	saveConfig string

	series     []string
	plotWidth  int
	plotHeight int
	svgFile    string

	outFile   string
	tolerance float64
	withEdges bool
	solvers   []string

	themeName string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "stagesim",
		Short:         "two-stage vertical rocket trajectory estimator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = logging.New(os.Stderr, viper.GetString("log-level"))
			return err
		},
	}

	rootCmd.PersistentFlags().String("data", ".stagesim", "data directory")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error, none)")
	viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.SetEnvPrefix("stagesim")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.BindEnv("config")
	viper.AutomaticEnv()

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate a flight and store the run",
		Args:  cobra.NoArgs,
		RunE:  runFlight,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringVar(&chartsDir, "charts", "", "write PNG charts to this directory")
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the resolved config to this yaml file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&series, "series", []string{"height", "velocity", "mass", "accel"},
		"series to plot ("+strings.Join(viz.SeriesNames, ", ")+")")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "chart width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "chart height")
	plotCmd.Flags().StringVar(&svgFile, "svg", "", "also write the first series as SVG")

	chartsCmd := &cobra.Command{
		Use:   "charts [run_id]",
		Short: "write PNG charts for a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  chartsRun,
	}
	chartsCmd.Flags().StringVarP(&outFile, "out", "o", "", "output directory (default: the run directory)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default: stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default: stdout)")

	checkCmd := &cobra.Command{
		Use:   "check [run_id]",
		Short: "compare modelled acceleration with the velocity gradient",
		Args:  cobra.ExactArgs(1),
		RunE:  checkRun,
	}
	checkCmd.Flags().Float64Var(&tolerance, "tol", 0.01, "maximum relative deviation")
	checkCmd.Flags().BoolVar(&withEdges, "edges", false, "include phase end points")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "fly the same vehicle with several integrators",
		Args:  cobra.NoArgs,
		RunE:  compareSolvers,
	}
	addConfigFlags(compareCmd)
	compareCmd.Flags().StringSliceVar(&solvers, "solvers", []string{"rk45", "rk4"},
		"integrators to compare ("+strings.Join(integrators.List(), ", ")+")")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, config.Describe(name))
			}
			return w.Flush()
		},
	}

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "browse a stored run interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tr, err := store().LoadTrajectory(args[0])
			if err != nil {
				return err
			}
			if !slices.Contains(viz.ThemeNames(), themeName) {
				return fmt.Errorf("unknown theme: %s (available: %v)", themeName, viz.ThemeNames())
			}
			return viz.RunReplay(args[0], tr, viz.GetTheme(themeName))
		},
	}
	replayCmd.Flags().StringVar(&themeName, "theme", viz.Themes[0].Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, chartsCmd, exportCSVCmd, exportJSONCmd, checkCmd, compareCmd, presetsCmd, replayCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func store() *storage.Store {
	return storage.New(viper.GetString("data"))
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "start from a preset ("+strings.Join(config.ListPresets(), ", ")+")")
	for _, o := range overrides {
		f.Float64(o.flag, 0, o.usage)
	}
	f.StringArrayVar(&params, "param", nil, "set a physics constant by config name, e.g. drag_coeff=0.5 (repeatable)")
	f.Int("samples", 0, "samples per phase")
	f.String("solver", "", "integrator ("+strings.Join(integrators.List(), ", ")+")")
}

// override maps a command-line flag onto a config field. field returns nil
// when the field does not exist in cfg, e.g. a second stage on a
// single-stage vehicle.
type override struct {
	flag  string
	usage string
	field func(cfg *config.Config) *float64
}

func stageField(i int, f func(s *config.Config, i int) *float64) func(*config.Config) *float64 {
	return func(cfg *config.Config) *float64 {
		if i >= len(cfg.Vehicle.Stages) {
			return nil
		}
		return f(cfg, i)
	}
}

var overrides = []override{
	{"gravity", "gravitational acceleration (m/s^2)", func(c *config.Config) *float64 { return &c.Physics.Gravity }},
	{"air-density", "air density (kg/m^3)", func(c *config.Config) *float64 { return &c.Physics.AirDensity }},
	{"drag-coeff", "drag coefficient", func(c *config.Config) *float64 { return &c.Physics.DragCoeff }},
	{"ref-area", "reference area (m^2)", func(c *config.Config) *float64 { return &c.Physics.RefArea }},
	{"initial-mass", "lift-off mass (kg)", func(c *config.Config) *float64 { return &c.Vehicle.InitialMass }},
	{"rtol", "relative tolerance", func(c *config.Config) *float64 { return &c.Solver.Tolerance }},
	{"atol", "absolute tolerance", func(c *config.Config) *float64 { return &c.Solver.AbsTolerance }},
	{"flow1", "stage 1 mass flow rate (kg/s)", stageField(0, func(c *config.Config, i int) *float64 { return &c.Vehicle.Stages[i].MassFlowRate })},
	{"ue1", "stage 1 exhaust velocity (m/s)", stageField(0, func(c *config.Config, i int) *float64 { return &c.Vehicle.Stages[i].ExhaustVelocity })},
	{"prop1", "stage 1 propellant mass (kg)", stageField(0, func(c *config.Config, i int) *float64 { return &c.Vehicle.Stages[i].PropellantMass })},
	{"coast1", "stage 1 coast duration (s)", stageField(0, func(c *config.Config, i int) *float64 { return &c.Vehicle.Stages[i].CoastDuration })},
	{"sep1", "stage 1 separation mass (kg)", stageField(0, func(c *config.Config, i int) *float64 { return &c.Vehicle.Stages[i].SeparationMass })},
	{"flow2", "stage 2 mass flow rate (kg/s)", stageField(1, func(c *config.Config, i int) *float64 { return &c.Vehicle.Stages[i].MassFlowRate })},
	{"ue2", "stage 2 exhaust velocity (m/s)", stageField(1, func(c *config.Config, i int) *float64 { return &c.Vehicle.Stages[i].ExhaustVelocity })},
	{"prop2", "stage 2 propellant mass (kg)", stageField(1, func(c *config.Config, i int) *float64 { return &c.Vehicle.Stages[i].PropellantMass })},
	{"coast2", "stage 2 coast duration (s)", stageField(1, func(c *config.Config, i int) *float64 { return &c.Vehicle.Stages[i].CoastDuration })},
}

// resolveConfig layers defaults, preset, config file and explicit flags, in
// that order. The label names the run in storage.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	label := "reference"

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		label = preset
	}

	path := configFile
	if path == "" {
		path = viper.GetString("config")
	}
	if path != "" {
		if preset != "" {
			return nil, "", fmt.Errorf("--preset and --config are mutually exclusive")
		}
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		label = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	f := cmd.Flags()
	for _, o := range overrides {
		if !f.Changed(o.flag) {
			continue
		}
		dst := o.field(cfg)
		if dst == nil {
			return nil, "", fmt.Errorf("--%s: vehicle has %d stage(s)", o.flag, len(cfg.Vehicle.Stages))
		}
		v, _ := f.GetFloat64(o.flag)
		*dst = v
		label = "custom"
	}
	if len(params) > 0 {
		if err := applyParams(&cfg.Physics, params); err != nil {
			return nil, "", err
		}
		label = "custom"
	}
	if f.Changed("samples") {
		cfg.Samples, _ = f.GetInt("samples")
	}
	if f.Changed("solver") {
		cfg.Solver.Name, _ = f.GetString("solver")
	}

	return cfg, label, cfg.Validate()
}

// applyParams sets physics constants from name=value pairs.
func applyParams(c *physics.Constants, pairs []string) error {
	known := slices.Sorted(maps.Keys(c.GetParams()))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("--param %q: want name=value", pair)
		}
		name = strings.TrimSpace(name)
		if !slices.Contains(known, name) {
			return fmt.Errorf("--param %q: unknown constant (available: %v)", pair, known)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("--param %q: %w", pair, err)
		}
		if err := c.SetParam(name, v); err != nil {
			return err
		}
	}
	return nil
}

func runFlight(cmd *cobra.Command, args []string) error {
	cfg, label, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return err
		}
	}

	res, err := experiment.New(label, cfg, logger).Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println(viz.RenderSummary(label+" / "+res.Solver, res.Summary, res.CrossCheck))
	fmt.Printf("completed in %v\n", res.Elapsed)

	if !noSave {
		st := store()
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(label, cfg, res.Trajectory)
		if err != nil {
			return err
		}
		level.Info(logger).Log("msg", "run stored", "id", runID, "dir", st.Dir(runID))
		fmt.Printf("run id: %s\n", runID)
	}

	if chartsDir != "" {
		paths, err := export.WriteCharts(chartsDir, res.Trajectory, export.DefaultChartOptions())
		if err != nil {
			return err
		}
		level.Info(logger).Log("msg", "charts written", "dir", chartsDir, "files", len(paths))
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := store().List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSOLVER\tSAMPLES\tMAX_H\tMAX_V\tDEV")

	for _, run := range runs {
		samples := 0
		if run.Config != nil {
			samples = run.Config.Samples
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.1fm\t%.1fm/s\t%.3f%%\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Solver,
			samples,
			run.Summary.MaxHeight,
			run.Summary.MaxVelocity,
			100*run.CrossCheck.Overall.MaxRel,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := store().LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("solver: %s\n", meta.Solver)
	fmt.Printf("samples: %d\n\n", tr.Len())

	for _, name := range series {
		chart, err := viz.Chart(tr, name, plotWidth, plotHeight)
		if err != nil {
			return err
		}
		fmt.Println(chart)
		fmt.Println()
	}

	if svgFile != "" && len(series) > 0 {
		ys, _ := viz.Series(tr, series[0])
		svg := export.SeriesToSVG(tr.Time, ys, 800, 400, "#00ff88")
		if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
			return err
		}
	}
	return nil
}

func chartsRun(cmd *cobra.Command, args []string) error {
	st := store()
	_, tr, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	dir := outFile
	if dir == "" {
		dir = st.Dir(args[0])
	}
	paths, err := export.WriteCharts(dir, tr, export.DefaultChartOptions())
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

// output returns the writer for --out, or stdout.
func output() (io.WriteCloser, error) {
	if outFile == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outFile)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportCSV(cmd *cobra.Command, args []string) error {
	_, tr, err := store().LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	w, err := output()
	if err != nil {
		return err
	}
	if err := storage.WriteCSV(w, tr); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, tr, err := store().LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	w, err := output()
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(w, meta, tr); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

var errCheckFailed = errors.New("cross-check failed")

func checkRun(cmd *cobra.Command, args []string) error {
	_, tr, err := store().LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	rep := trajectory.CrossCheck(tr, withEdges)
	fmt.Println(viz.RenderCheck(rep, tolerance))
	if !rep.Within(tolerance) {
		return fmt.Errorf("%w: max deviation %.4f%% at t=%.3f s", errCheckFailed, 100*rep.Overall.MaxRel, rep.Overall.MaxAt)
	}
	return nil
}

func compareSolvers(cmd *cobra.Command, args []string) error {
	if len(solvers) == 0 {
		return fmt.Errorf("no solvers to compare")
	}
	cfg, label, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	base := experiment.New(label, cfg, logger)
	results, err := experiment.RunAll(cmd.Context(), experiment.Solvers(base, solvers))
	if err != nil {
		return err
	}

	labels := make([]string, len(results))
	sums := make([]metrics.Summary, len(results))
	for i, r := range results {
		labels[i] = fmt.Sprintf("%s (%v)", r.Solver, r.Elapsed.Round(time.Microsecond))
		sums[i] = r.Summary
	}
	fmt.Println(viz.RenderComparison(labels, sums))

	ref := results[0].Trajectory
	for _, r := range results[1:] {
		dh := floats.Distance(ref.Height, r.Trajectory.Height, math.Inf(1))
		dv := floats.Distance(ref.Velocity, r.Trajectory.Velocity, math.Inf(1))
		fmt.Printf("%s vs %s: max |dh| %.3e m, max |dv| %.3e m/s\n", results[0].Solver, r.Solver, dh, dv)
	}
	return nil
}
