package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmstream/mm/internal/logger"
	"github.com/mmstream/mm/internal/metrics"
	"github.com/mmstream/mm/internal/mmserver"
	"github.com/mmstream/mm/internal/transport"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if cfg.showVersion {
		fmt.Println(version)
		return
	}

	logger.Init()
	if err := logger.SetLevel(cfg.logLevel); err != nil {
		fmt.Printf("Warning: invalid log level %q, using default\n", cfg.logLevel)
	}
	log := logger.Logger().With("component", "cli")

	srvCfg := mmserver.DefaultConfig()
	if cfg.configPath != "" {
		srvCfg, err = mmserver.LoadConfig(cfg.configPath)
		if err != nil {
			log.Error("failed to load config", "path", cfg.configPath, "err", err)
			os.Exit(1)
		}
	}
	if cfg.listenAddr != "" {
		srvCfg.ListenAddr = cfg.listenAddr
	}

	tlsConf, err := loadTLSConfig(cfg.certFile, cfg.keyFile)
	if err != nil {
		log.Error("failed to load TLS material", "err", err)
		os.Exit(1)
	}

	reg := metrics.New()

	server, err := mmserver.New(srvCfg, tlsConf, reg)
	if err != nil {
		log.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	metricsSrv := &http.Server{Addr: cfg.metricsAddr, Handler: reg.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("server started", "addr", srvCfg.ListenAddr, "metrics_addr", cfg.metricsAddr, "version", version)

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(ctx) }()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			log.Error("serve loop exited", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		if err := server.Close(); err != nil {
			log.Error("server close error", "error", err)
		}
		_ = metricsSrv.Shutdown(shutdownCtx)
		close(done)
	}()

	select {
	case <-done:
		log.Info("server stopped cleanly")
	case <-shutdownCtx.Done():
		log.Error("forced exit after timeout")
	}
}

// loadTLSConfig loads a cert/key pair from disk, or falls back to an
// ephemeral self-signed certificate suitable for local development --
// QUIC always requires TLS, unlike the teacher's plaintext TCP listener.
func loadTLSConfig(certFile, keyFile string) (*tls.Config, error) {
	if certFile != "" && keyFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, err
		}
		return &tls.Config{Certificates: []tls.Certificate{cert}, NextProtos: []string{transport.ALPN}}, nil
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	serialNumber, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, err
	}
	tmpl := x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               pkix.Name{Organization: []string{"mm-server"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	cert := tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
	return &tls.Config{Certificates: []tls.Certificate{cert}, NextProtos: []string{transport.ALPN}}, nil
}
