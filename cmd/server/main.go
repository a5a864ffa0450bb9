package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wifiutils/internal/adapter"
	"wifiutils/internal/bridge"
	"wifiutils/internal/config"
	"wifiutils/internal/core/bootstrap"
	"wifiutils/internal/core/inspect"
	"wifiutils/internal/handler"
	"wifiutils/internal/hub"
	"wifiutils/internal/loader"
	"wifiutils/internal/repository/sqlite"
	"wifiutils/internal/service"
	"wifiutils/internal/watcher"
)

func main() {
	// Command line flags override the config file
	configPath := flag.String("config", "", "Config file path (default: search standard locations)")
	addr := flag.String("addr", "", "HTTP listen address")
	dbPath := flag.String("db", "", "SQLite database path")
	seedPath := flag.String("seed", "", "Snapshot or Ansible inventory to seed the neighbour table from")
	initConfig := flag.Bool("init", false, "Write a default config file and exit")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if *initConfig {
		path := *configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		log.Printf("Default config written to %s", path)
		return
	}

	log.Println("Starting wifiutils inspector...")

	cfg, cfgPath, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if cfgPath != "" {
		log.Printf("Config loaded from %s", cfgPath)
	} else {
		log.Printf("No config file found in %v, using defaults", config.SearchPaths())
	}
	log.Printf("Config: %s", cfg.Summary())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize SQLite journal
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	if *seedPath != "" {
		n, err := loader.SeedNeighbors(ctx, repo, *seedPath)
		if err != nil {
			log.Printf("Failed to seed neighbours: %v", err)
		} else {
			log.Printf("Seeded %d neighbours from %s", n, *seedPath)
		}
	}

	iface := cfg.Inspector.Interface
	nl := adapter.NewNL80211(iface)
	wpaCtrl := adapter.NewCtrlClient(cfg.Inspector.WPACtrlDir, iface)
	hostapd := adapter.NewHostapdProbe(adapter.NewCtrlClient(cfg.Inspector.HostapdCtrlDir, cfg.Inspector.APInterface))

	// Find out which platform backends work before wiring monitors to them
	boot, err := bootstrap.Run(ctx, bootstrap.Options{
		WPACtrlDir:     cfg.Inspector.WPACtrlDir,
		HostapdCtrlDir: cfg.Inspector.HostapdCtrlDir,
		NL80211:        nl.Available,
	})
	if err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}
	plan := boot.Plan
	for _, w := range plan.Warnings {
		log.Printf("Warning: %s", w)
	}

	eventBus := service.NewEventBus()

	sseHub := hub.New()
	go sseHub.Run(ctx)
	sseHub.Forward(ctx, eventBus)

	// Inspector over the platform sources
	netIfs := adapter.NewNetInterfaces()
	wpa := adapter.NewWPASupplicant(wpaCtrl)
	probes := []inspect.APProbe{}
	if hostapd.Available() {
		probes = append(probes, hostapd)
	}
	probes = append(probes, nl)
	insp := inspect.New(netIfs,
		inspect.WithStationSource(adapter.NewMergedStation(nl, wpa)),
		inspect.WithAPProbe(adapter.FirstProbe(probes...)),
		inspect.WithHostnameSource(adapter.NewHostnameProbe()),
		inspect.WithLegacyAPCodes(cfg.Inspector.APStateOffset),
	)

	notifier := service.NewNotifier(insp, eventBus)
	insp.SetStateReporter(notifier)
	reconciler := service.NewReconcileService(repo, notifier, eventBus)
	notifier.SetReportListener(reconciler)

	lock := service.NewWifiLock(adapter.NewPowerSaveLock(cfg.LockInterface()), eventBus)
	if !plan.Lock {
		log.Println("WiFi lock requests will fail: iw or root missing")
	}

	br := bridge.New(insp, notifier, lock, cfg.Inspector.Workers)
	br.SetWlanScanner(wpa)
	br.SetNeighborLister(repo)
	// Inspections triggered by transitions share the bridge pool
	notifier.SetDispatcher(br)

	// Platform monitors feed the notifier through the reconciler
	registry := adapter.NewRegistry(reconciler.Reconcile)
	registry.SetAdapterEventHandler(func(eventType string, payload interface{}) {
		eventBus.Publish(service.Event{Type: service.EventType(eventType), Payload: payload})
	})
	registerAdapters(registry, cfg, plan, wpaCtrl, nl, netIfs, probes, insp)

	if err := registry.Start(ctx); err != nil {
		log.Printf("Warning: Failed to start adapter registry: %v", err)
	}

	if cfgPath != "" {
		w := watcher.New(cfgPath, func(next *config.Config) {
			if next.Inspector.APStateOffset != insp.LegacyAPCodes() {
				log.Printf("AP state offset changed: %v -> %v", insp.LegacyAPCodes(), next.Inspector.APStateOffset)
				insp.SetLegacyAPCodes(next.Inspector.APStateOffset)
			}
			eventBus.Publish(service.Event{Type: service.EventConfigReloaded, Payload: next.Summary()})
		})
		go func() {
			if err := w.Watch(ctx); err != nil && err != context.Canceled {
				log.Printf("Config watcher stopped: %v", err)
			}
		}()
	}

	go pruneLoop(ctx, repo, cfg.Database.RetainTransitions)

	// HTTP routes
	apiHandler := handler.NewInspectorHandler(br, repo)
	apiHandler.SetAdapterRegistry(registry)
	apiHandler.SetCapabilitySource(boot)

	mux := http.NewServeMux()
	apiHandler.Register(mux)
	mux.Handle("GET /events", sseHub)

	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORSWithOrigin(cfg.Server.CORSOrigin),
		handler.Logger,
	)

	server := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     finalHandler,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No write timeout: /events and state streams are long-lived
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Cancelling ctx ends the event streams so Shutdown can drain
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if err := registry.Stop(); err != nil {
		log.Printf("Adapter registry shutdown error: %v", err)
	}
	br.Close()
	notifier.Close()
	if err := lock.Release(); err != nil {
		log.Printf("Failed to release WiFi lock: %v", err)
	}

	log.Println("Server stopped")
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// registerAdapters registers every monitor, enabling those that are both
// configured and backed by a working platform interface
func registerAdapters(registry *adapter.Registry, cfg *config.Config, plan bootstrap.Plan,
	wpaCtrl *adapter.CtrlClient, nl *adapter.NL80211, netIfs *adapter.NetInterfaces, probes []inspect.APProbe, insp *inspect.Inspector) {

	// Priorities come from the adapters themselves
	register := func(a adapter.Adapter, settings config.AdapterSettings, available bool) {
		conf := adapter.AdapterConfig{
			Enabled: settings.Enabled && available,
		}
		if settings.PollInterval > 0 {
			conf.PollInterval = settings.PollInterval.String()
		}
		if err := registry.Register(a, conf); err != nil {
			log.Printf("Failed to register adapter %s: %v", a.Name(), err)
		}
	}

	register(adapter.NewWPAAdapter(wpaCtrl), cfg.Adapters.WPA, plan.WPA)

	link := adapter.NewLinkAdapter(cfg.Inspector.Interface, netIfs.IsWireless)
	link.SetStationFilter(nl.IsStation)
	register(link, cfg.Adapters.Link, plan.Link)

	apIface := cfg.Inspector.APInterface
	if apIface == "" {
		apIface = cfg.Inspector.Interface
	}
	register(adapter.NewHotspotAdapter(adapter.FirstProbe(probes...), apIface), cfg.Adapters.Hotspot, plan.Hotspot)

	nmapCfg := cfg.Adapters.Nmap
	scanner := adapter.NewNmapAdapter(nmapCfg.Targets,
		adapter.WithTimeout(nmapCfg.Timeout.Duration()),
		adapter.WithNameResolution(nmapCfg.ResolveNames),
		adapter.WithTargetFunc(func(ctx context.Context) ([]string, error) {
			report, err := insp.Inspect(ctx)
			if err != nil {
				return nil, err
			}
			return adapter.SubnetTargets(report), nil
		}),
	)
	register(scanner, nmapCfg.AdapterSettings, plan.Nmap)
}

// pruneLoop trims the transition journal to its retention limit every hour
func pruneLoop(ctx context.Context, repo *sqlite.Repository, keep int) {
	if keep <= 0 {
		return
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		n, err := repo.PruneTransitions(ctx, keep)
		if err != nil {
			log.Printf("Failed to prune transitions: %v", err)
		} else if n > 0 {
			log.Printf("Pruned %d transitions", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
