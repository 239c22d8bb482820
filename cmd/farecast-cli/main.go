// README: Terminal client; runs one fare session in-process and renders the counting fare and typed recommendation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"farecast/internal/config"
	"farecast/internal/infra"
	"farecast/internal/modules/location"
	"farecast/internal/modules/prediction"
	"farecast/internal/modules/reveal"
	"farecast/internal/modules/session"
	"farecast/internal/types"
)

type options struct {
	pickup     string
	dropoff    string
	from       string
	to         string
	passengers int
	pickupTime string
	timeout    time.Duration
}

func main() {
	var opt options
	flag.StringVar(&opt.pickup, "pickup", "", "pickup as lat,lon")
	flag.StringVar(&opt.dropoff, "dropoff", "", "dropoff as lat,lon")
	flag.StringVar(&opt.from, "from", "", "pickup place name (searched)")
	flag.StringVar(&opt.to, "to", "", "dropoff place name (searched)")
	flag.IntVar(&opt.passengers, "passengers", 1, "passenger count (1-6)")
	flag.StringVar(&opt.pickupTime, "time", "", "pickup time YYYY-MM-DD HH:MM:SS (default now)")
	flag.DurationVar(&opt.timeout, "timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := infra.NewLogger(cfg.Env, "warn")
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), opt.timeout)
	defer cancel()

	if err := run(ctx, cfg, opt, logger); err != nil {
		fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, opt options, logger *zap.Logger) error {
	client := prediction.NewClient(prediction.ClientConfig{
		BaseURL:   cfg.Predictor.URL,
		Timeout:   cfg.Predictor.Timeout,
		UserAgent: cfg.Maps.UserAgent,
	}, nil)
	deps := session.Deps{
		Predictor: prediction.NewService(client, logger),
		Places:    location.NewService(location.NewNominatim(cfg.Maps.NominatimURL, cfg.Maps.UserAgent, &http.Client{Timeout: cfg.Maps.Timeout}), logger),
		Log:       logger,
	}
	s := session.New("cli", reveal.NewEventLoop(logger), deps)
	defer s.Close()

	if err := fillTrip(ctx, s, opt); err != nil {
		return err
	}

	frames, unsubscribe, err := s.Subscribe()
	if err != nil {
		return err
	}
	defer unsubscribe()
	first := (<-frames).Payload.(session.Snapshot)
	fmt.Printf("pickup  %s\ndropoff %s\nwhen    %s\n", fmtPoint(first.Trip.Pickup), fmtPoint(first.Trip.Dropoff), first.Trip.PickupDatetime)
	if first.LiveRecommendation != "" {
		fmt.Printf("tip     %s\n", first.LiveRecommendation)
	}

	if err := s.Submit(); err != nil {
		return err
	}
	fmt.Print("\nestimating...")
	return render(ctx, frames)
}

func fillTrip(ctx context.Context, s *session.Session, opt options) error {
	for _, end := range []struct{ coords, query string }{{opt.pickup, opt.from}, {opt.dropoff, opt.to}} {
		switch {
		case end.coords != "":
			p, err := parsePoint(end.coords)
			if err != nil {
				return err
			}
			if _, err := s.SelectLocation(p.Lat, p.Lng); err != nil {
				return err
			}
		case end.query != "":
			sel, err := s.Search(ctx, end.query)
			if err != nil {
				return fmt.Errorf("%q: %w", end.query, err)
			}
			if sel == nil {
				return errors.New("empty place query")
			}
		default:
			return errors.New("need -pickup/-from and -dropoff/-to")
		}
	}
	if err := s.SetPassengerCount(opt.passengers); err != nil {
		return err
	}
	if opt.pickupTime == "" {
		return s.SetPickupNow()
	}
	return s.SetPickupTime(opt.pickupTime)
}

// render draws frames until the reveal finishes or the request fails.
func render(ctx context.Context, frames <-chan session.Frame) error {
	explained := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				return errors.New("session closed")
			}
			switch f.Kind {
			case session.FrameError:
				return errors.New(f.Payload.(session.ErrorView).Message)
			case session.FrameFare:
				fmt.Printf("\rfare    %s   ", f.Payload.(session.FareView).Display)
			case session.FrameText:
				tv := f.Payload.(session.TextView)
				if tv.Source == session.SourcePrediction {
					fmt.Printf("\radvice %s", tv.Text)
				}
			case session.FrameState:
				snap := f.Payload.(session.Snapshot)
				if snap.Prediction == nil || snap.Fare.Phase != reveal.PhaseDone {
					continue
				}
				if !explained {
					explained = true
					fmt.Printf("\n")
					if snap.Prediction.Explanation != "" {
						fmt.Printf("why     %s\n", snap.Prediction.Explanation)
					}
				}
				if snap.Prediction.Recommendation == "" || snap.Text.Phase == reveal.PhaseDone {
					fmt.Println()
					return nil
				}
			}
		}
	}
}

func parsePoint(v string) (types.Point, error) {
	lat, lon, ok := strings.Cut(v, ",")
	if !ok {
		return types.Point{}, fmt.Errorf("%q: want lat,lon", v)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return types.Point{}, fmt.Errorf("%q: %w", v, err)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return types.Point{}, fmt.Errorf("%q: %w", v, err)
	}
	return types.Point{Lat: la, Lng: lo}, nil
}

func fmtPoint(p *types.Point) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.5f, %.5f", p.Lat, p.Lng)
}
