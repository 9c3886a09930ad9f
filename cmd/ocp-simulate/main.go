// Command ocp-simulate runs internal/simulate's house-edge harness and
// prints realized edge per game type, the offline analogue of
// simulator/examples/house_edge.rs (spec SUPPLEMENTED FEATURES: a
// deterministic harness over the same handlers used on-chain, no
// consensus, no wire format).
package main

import (
	"flag"
	"fmt"
	"os"

	"ocpengine/internal/simulate"
)

func main() {
	trials := flag.Int("trials", 20_000, "independent sessions per game type")
	bet := flag.Uint64("bet", 100, "flat bet staked per session")
	flag.Parse()

	cfg := simulate.Config{
		Games: []simulate.GameSpec{
			{GameType: "Dice", Bet: *bet},
			{GameType: "HiLo", Bet: *bet},
		},
		Trials: *trials,
	}

	results, err := simulate.Run(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("%-8s %10s %14s %14s %10s %10s\n", "game", "trials", "avg_wagered", "avg_net", "edge", "stderr")
	for _, r := range results {
		fmt.Printf("%-8s %10d %14.2f %14.4f %9.4f%% %10.4f\n",
			r.GameType, r.Stats.Trials, r.Stats.MeanWagered(), r.Stats.MeanNet(), r.Stats.HouseEdge()*100, r.Stats.StdErr())
	}
}
