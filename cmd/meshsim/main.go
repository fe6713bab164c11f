package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/meshview/core"
	"github.com/signalsfoundry/meshview/internal/logging"
	"github.com/signalsfoundry/meshview/internal/observability"
	"github.com/signalsfoundry/meshview/layout"
	"github.com/signalsfoundry/meshview/model"
	"github.com/signalsfoundry/meshview/timectrl"
)

func main() {
	duration := flag.Duration("duration", 60*time.Second, "total simulation duration")
	tick := flag.Duration("tick", 1*time.Second, "tick interval")
	accelerated := flag.Bool("accelerated", true, "run in accelerated mode (vs real-time)")
	metricsAddr := flag.String("metrics-addr", ":9190", "listen address for the /metrics endpoint")
	algorithm := flag.String("layout", "force", "layout algorithm: force, geographic, circular or grid")
	flag.Parse()

	ctx := context.Background()
	log := logging.NewFromEnv()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing init failed", logging.String("error", err.Error()))
		return
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewTopologyCollector(nil)
	if err != nil {
		log.Error(ctx, "metrics init failed", logging.String("error", err.Error()))
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	metricsSrv := &http.Server{Addr: *metricsAddr, Handler: mux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(ctx, "metrics server stopped", logging.String("error", err.Error()))
		}
	}()
	defer metricsSrv.Shutdown(ctx)

	// ==== Time controller + topology ====

	mode := timectrl.RealTime
	if *accelerated {
		mode = timectrl.Accelerated
	}
	start := time.Now().UTC()
	tc := timectrl.NewTimeController(start, *tick, mode)

	tm := core.NewNetworkTopologyManager(core.Config{
		Clock:   tc,
		Logger:  log,
		Metrics: collector,
	})

	engine, err := layout.New(layout.Config{
		Width:     1280,
		Height:    800,
		Algorithm: layout.Algorithm(*algorithm),
	})
	if err != nil {
		log.Error(ctx, "layout init failed", logging.String("error", err.Error()))
		return
	}

	tm.AddListener(model.EventTopologyChanged, func(evt model.TopologyEvent) {
		log.Debug(ctx, "topology event",
			logging.String("type", string(evt.Type)),
			logging.String("node_id", evt.NodeID),
			logging.String("link_id", evt.LinkID),
		)
	})

	// ==== Synthetic regional mesh ====

	type seedStation struct {
		callsign string
		lat, lon float64
		rf       model.RFCharacteristics
	}
	seeds := []seedStation{
		{"W1AW", 41.7148, -72.7279, model.RFCharacteristics{FrequencyHz: 7.078e6, Band: model.BandHF, PowerWatts: 100, SNR: 18, Modulation: "JS8"}},
		{"K2MFF", 40.7424, -74.1784, model.RFCharacteristics{FrequencyHz: 7.078e6, Band: model.BandHF, PowerWatts: 50, SNR: 14, Modulation: "JS8"}},
		{"W2ABC", 40.7128, -74.0060, model.RFCharacteristics{FrequencyHz: 144.39e6, Band: model.BandVHF, PowerWatts: 25, SNR: 22, Modulation: "FM"}},
		{"N3KZ", 39.9526, -75.1652, model.RFCharacteristics{FrequencyHz: 144.39e6, Band: model.BandVHF, PowerWatts: 50, SNR: 16, Modulation: "FM"}},
		{"W3PHL", 39.9800, -75.2000, model.RFCharacteristics{FrequencyHz: 446.0e6, Band: model.BandUHF, PowerWatts: 10, SNR: 12, Modulation: "FM"}},
	}

	nodes := make([]*model.StationNode, 0, len(seeds))
	for _, s := range seeds {
		node := tm.AddNode(s.callsign, model.GeoCoordinates{Latitude: s.lat, Longitude: s.lon}, "demo rig", s.rf)
		nodes = append(nodes, node)
	}

	// Chain neighbors plus one internet backbone link between the two
	// ends of the chain.
	for i := 0; i+1 < len(nodes); i++ {
		a, b := nodes[i], nodes[i+1]
		km, _ := tm.Stations().CalculateDistance(a.ID, b.ID)
		bearing, _ := tm.Stations().CalculateBearing(a.ID, b.ID)
		prop := model.PropagationConditions{
			DistanceKm: km,
			AzimuthDeg: bearing,
			PathLossDB: core.CalculatePathLoss(km, a.RF.FrequencyHz, model.TerrainSuburban),
		}
		tm.AddLink(a.ID, b.ID, model.ConnectionRF, "js8call", a.RF, prop)
	}
	tm.AddLink(nodes[0].ID, nodes[len(nodes)-1].ID, model.ConnectionInternet, "ax25-over-ip",
		model.RFCharacteristics{SNR: 30}, model.PropagationConditions{})

	hops := make([]string, len(nodes))
	for i, n := range nodes {
		hops[i] = n.ID
	}
	tm.AddRoute(&model.RoutePath{
		SourceID:    nodes[0].ID,
		DestID:      nodes[len(nodes)-1].ID,
		Hops:        hops,
		Reliability: core.EstimatePropagationReliability(100, 7.078e6, 18, model.BandHF),
		LatencyMs:   850,
	})
	flow := tm.StartTrafficFlow(nodes[0].ID, nodes[len(nodes)-1].ID, model.FlowBidirectional, model.PriorityNormal)

	// ==== Tick loop: telemetry churn, maintenance, layout ====

	tracer := otel.Tracer("meshsim")
	tickNum := 0

	tc.AddListener(func(simTime time.Time) {
		_, span := tracer.Start(ctx, "meshsim.tick")
		defer span.End()
		tickNum++

		// Fade the RF links with a slow oscillation so quality and
		// health visibly move.
		phase := float64(tickNum) / 10.0
		for i, link := range tm.Links().GetAllLinks() {
			if link.Type != model.ConnectionRF {
				continue
			}
			rf := link.RF
			rf.SNR = math.Max(1, rf.SNR+4*math.Sin(phase+float64(i)))
			metrics := link.Metrics
			metrics.PacketsSent += 25
			metrics.PacketsReceived += 24
			metrics.ThroughputBps = 50 + 1450*link.Quality
			tm.UpdateLink(link.ID, model.ConnectionLinkUpdate{RF: &rf, Metrics: &metrics})
		}

		bytes := flow.Bytes + 512
		tm.UpdateTrafficFlow(flow.ID, model.TrafficFlowUpdate{Bytes: &bytes})

		tm.MaintenanceTick(simTime)

		layoutStart := time.Now()
		engine.CalculateLayout(tm.Stations().GetAllNodes(), tm.Links().GetAllLinks())
		collector.ObserveLayoutDuration(*algorithm, time.Since(layoutStart).Seconds())

		health := tm.Health()
		span.SetAttributes(
			attribute.Int("mesh.stations", tm.Stations().Count()),
			attribute.Int("mesh.links", tm.Links().Count()),
			attribute.Float64("mesh.availability", health.Availability),
		)

		fmt.Printf("[%s] stations=%d links=%d availability=%.2f throughput=%.0f bps\n",
			simTime.Format(time.RFC3339),
			tm.Stations().Count(), tm.Links().Count(),
			health.Availability, health.ThroughputBps,
		)
		for _, link := range tm.Links().GetAllLinks() {
			fmt.Printf("↳ Link %-60s type=%-8s up=%-5v quality=%.2f SNR=%5.1f dB loss=%5.1f dB\n",
				link.ID, link.Type, link.Active, link.Quality, link.RF.SNR, link.Propagation.PathLossDB,
			)
		}
	})

	log.Info(ctx, "starting mesh simulation",
		logging.String("duration", duration.String()),
		logging.String("tick", tick.String()),
		logging.String("layout", *algorithm),
		logging.String("metrics_addr", *metricsAddr),
	)
	done := tc.Start(*duration)
	<-done
	tc.Stop()

	stats := tm.GetTopologyStatistics()
	log.Info(ctx, "simulation complete",
		logging.Int("stations", stats.TotalNodes),
		logging.Int("links", stats.TotalLinks),
		logging.Int("partitions", stats.PartitionCount),
		logging.Int("diameter", stats.Diameter),
	)
}
