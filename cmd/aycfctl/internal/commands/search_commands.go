package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"aycf/internal/config"
	"aycf/internal/finder"
	"aycf/internal/model"
	"aycf/internal/routes"
)

type searchFlags struct {
	trip     string
	from     []string
	to       []string
	maxStops int
	date     string
}

func (f *searchFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.trip, "trip", string(model.TripOneWay), "trip type: oneway or roundtrip")
	cmd.Flags().StringSliceVar(&f.from, "from", nil, "departure airports (IATA)")
	cmd.Flags().StringSliceVar(&f.to, "to", nil, "destination airports (IATA), empty for any")
	cmd.Flags().IntVar(&f.maxStops, "max-stops", 0, "0 for direct flights, 1 to allow one stop")
	cmd.Flags().StringVar(&f.date, "date", "", "departure date (YYYY-MM-DD), empty for the next days")
	_ = cmd.MarkFlagRequired("from")
}

func upper(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, strings.ToUpper(strings.TrimSpace(c)))
	}
	return out
}

// preview is what a search over g would check.
type preview struct {
	oneWay    []model.OneWayCandidate
	roundTrip []model.RoundTripCandidate
	segments  []model.Segment
	plan      finder.Plan
}

func (f *searchFlags) preview(g *routes.Graph, now time.Time) (*preview, error) {
	from, to := upper(f.from), upper(f.to)
	for _, c := range append(append([]string(nil), from...), to...) {
		if !g.HasAirport(c) {
			return nil, fmt.Errorf("unknown airport %s", c)
		}
	}
	if err := finder.ValidateDepartureDate(f.date, now); err != nil {
		return nil, err
	}

	p := &preview{}
	var err error
	switch model.TripType(f.trip) {
	case model.TripOneWay:
		p.oneWay = finder.OneWayCandidates(g, from, to, f.maxStops)
		p.segments = finder.UniqueSegments(p.oneWay)
		p.plan, err = finder.OneWayPlan(p.oneWay, f.date, now)
	case model.TripRoundTrip:
		p.roundTrip = finder.RoundTripCandidates(g, from, to)
		p.segments = finder.UniqueRoundTripSegments(p.roundTrip)
		p.plan, err = finder.RoundTripPlan(p.roundTrip, f.date, now)
	default:
		return nil, fmt.Errorf("unknown trip type %q", f.trip)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func printCandidates(w io.Writer, p *preview) {
	for _, c := range p.oneWay {
		if c.Direct() {
			fmt.Fprintf(w, "%s -> %s\n", c.First.Origin, c.First.Destination)
			continue
		}
		fmt.Fprintf(w, "%s -> %s -> %s\n", c.First.Origin, c.First.Destination, c.Second.Destination)
	}
	for _, c := range p.roundTrip {
		fmt.Fprintf(w, "%s -> %s -> %s\n", c.Outward.Origin, c.Outward.Destination, c.Return.Destination)
	}
}

// InitSearchCommands registers the offline search previews.
func InitSearchCommands(rootCmd *cobra.Command, cfg config.RoutesConfig) {
	var cands searchFlags
	candidatesCmd := &cobra.Command{
		Use:   "candidates",
		Short: "List the routes a search would consider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := loadNetwork(cfg)
			if err != nil {
				return err
			}
			p, err := cands.preview(g, time.Now())
			if err != nil {
				return err
			}
			printCandidates(cmd.OutOrStdout(), p)
			return nil
		},
	}
	cands.bind(candidatesCmd)
	routeFlags(candidatesCmd, &cfg)

	var est searchFlags
	estimateCmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate how long a search takes to check",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := loadNetwork(cfg)
			if err != nil {
				return err
			}
			p, err := est.preview(g, time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "candidates: %d\n", len(p.oneWay)+len(p.roundTrip))
			fmt.Fprintf(out, "unique segments: %d\n", len(p.segments))
			fmt.Fprintf(out, "checks: up to %d\n", p.plan.Size())
			fmt.Fprintf(out, "estimated time: %s\n", finder.EstimateCheckingTime(len(p.segments)))
			return nil
		},
	}
	est.bind(estimateCmd)
	routeFlags(estimateCmd, &cfg)

	rootCmd.AddCommand(candidatesCmd, estimateCmd)
}
