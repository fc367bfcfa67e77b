package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults are embedded)")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	agentAddr := flag.String("agent-listen", "", "TCP address for socket agents (overrides server.agent_listen)")
	hashPassword := flag.String("hash-password", "", "Print a bcrypt hash for auth.password_hash and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *agentAddr != "" {
		cfg.Server.AgentListen = *agentAddr
	}

	log, err := NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	hub := NewHub(cfg.Server, log.Named("hub"))
	engine := NewEngine(cfg.Sim, NewProcessLauncher(cfg.Agents, log.Named("agent")), hub, log.Named("engine"))

	if cfg.Telemetry.Enabled {
		tel, err := OpenTelemetry(cfg.Telemetry.Path)
		if err != nil {
			log.Fatalw("opening telemetry", "path", cfg.Telemetry.Path, "err", err)
		}
		defer tel.Close()
		engine.SetTelemetry(tel, cfg.Telemetry.Every)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		engine.Run(ctx)
		close(done)
	}()

	if cfg.Server.AgentListen != "" {
		ln, err := net.Listen("tcp", cfg.Server.AgentListen)
		if err != nil {
			log.Fatalw("agent listener", "addr", cfg.Server.AgentListen, "err", err)
		}
		log.Infow("accepting socket agents", "addr", ln.Addr().String())
		go ServeAgents(ctx, ln, engine, log.Named("agents"))
	}

	mux := SetupRoutes(engine, hub, NewAuth(cfg.Auth), cfg.Server, log.Named("http"))

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Server.Addr, Handler: mux}

	go func() {
		log.Infow("server starting", "addr", cfg.Server.Addr, "dt", cfg.Sim.DT, "auth", cfg.Auth.Enabled)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	<-stop
	log.Info("shutting down...")
	cancel()
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
	engine.Shutdown()
}
