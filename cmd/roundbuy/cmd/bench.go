package cmd

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	vegeta "github.com/tsenart/vegeta/lib"
)

var (
	benchRPS      int
	benchDuration time.Duration
	benchPattern  string
)

// benchCmd fires read traffic at the API using the saved access token.
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a read benchmark against the RoundBuy API",
	Long: `Fire paced GET traffic at the conversations or offers endpoints using the
signed-in session's access token, and print latency percentiles.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchRPS, "rps", 50, "requests per second")
	benchCmd.Flags().DurationVar(&benchDuration, "duration", 15*time.Second, "benchmark duration")
	benchCmd.Flags().StringVar(&benchPattern, "pattern", "conversations", "benchmark pattern (conversations, offers, mixed)")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.requireAuth(); err != nil {
		return err
	}
	token, err := e.sess.Store().AccessToken()
	if err != nil || token == "" {
		return fmt.Errorf("no access token available")
	}

	targets, err := benchTargets(e.api.BaseURL(), token)
	if err != nil {
		return err
	}

	targeter := vegeta.NewStaticTargeter(targets...)
	rate := vegeta.Rate{Freq: benchRPS, Per: time.Second}
	attacker := vegeta.NewAttacker(vegeta.Workers(uint64(runtime.NumCPU())))

	fmt.Printf("Attacking %s at %d rps for %v...\n", benchPattern, benchRPS, benchDuration)

	var metrics vegeta.Metrics
	for res := range attacker.Attack(targeter, rate, benchDuration, benchPattern) {
		metrics.Add(res)
	}
	metrics.Close()

	fmt.Printf("Requests:  %d\n", metrics.Requests)
	fmt.Printf("Success:   %.2f%%\n", metrics.Success*100)
	fmt.Printf("Mean:      %v\n", metrics.Latencies.Mean)
	fmt.Printf("P50:       %v\n", metrics.Latencies.P50)
	fmt.Printf("P95:       %v\n", metrics.Latencies.P95)
	fmt.Printf("P99:       %v\n", metrics.Latencies.P99)
	fmt.Printf("Max:       %v\n", metrics.Latencies.Max)
	if len(metrics.Errors) > 0 {
		fmt.Printf("Errors:    %v\n", metrics.Errors)
	}
	return nil
}

func benchTargets(base, token string) ([]vegeta.Target, error) {
	header := map[string][]string{
		"Authorization": {"Bearer " + token},
	}
	convs := vegeta.Target{
		Method: "GET",
		URL:    base + "/messaging/conversations?page=1&limit=20",
		Header: header,
	}
	offs := vegeta.Target{
		Method: "GET",
		URL:    base + "/offers?type=all&page=1&limit=20",
		Header: header,
	}
	switch benchPattern {
	case "conversations":
		return []vegeta.Target{convs}, nil
	case "offers":
		return []vegeta.Target{offs}, nil
	case "mixed":
		return []vegeta.Target{convs, offs}, nil
	default:
		return nil, fmt.Errorf("unknown benchmark pattern %q", benchPattern)
	}
}
