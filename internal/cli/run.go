package cli

import (
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcalvo/outbreaksim/internal/config"
	"github.com/rcalvo/outbreaksim/internal/report"
	"github.com/rcalvo/outbreaksim/internal/sim"
	"github.com/rcalvo/outbreaksim/internal/world"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation and record it",
		Long:  "Build the configured world, run the epidemic for the configured number of days, and record every day into the database.",
		Run:   runRun,
	}

	cmd.Flags().StringP("config", "c", "", "YAML config file (defaults apply when omitted)")
	cmd.Flags().Int("days", 0, "Override the number of simulated days")
	cmd.Flags().Int64("seed", 0, "Random seed (0 picks one from the clock)")
	cmd.Flags().BoolP("quiet", "q", false, "Suppress per-day telemetry")

	RootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) {
	configPath, _ := cmd.Flags().GetString("config")
	days, _ := cmd.Flags().GetInt("days")
	seed, _ := cmd.Flags().GetInt64("seed")
	quiet, _ := cmd.Flags().GetBool("quiet")

	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	if days > 0 {
		cfg.Days = days
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	rng := rand.New(rand.NewSource(seed))
	countries, err := world.Build(cfg, s, rng)
	if err != nil {
		exitErr("build world", err)
	}

	var reporter sim.Reporter = report.NewConsole(os.Stdout)
	if quiet {
		reporter = sim.NopReporter{}
	}

	engine := sim.NewEngine(cfg, countries, s, reporter, seed)
	if err := engine.Run(); err != nil {
		exitErr("run simulation", err)
	}
}
