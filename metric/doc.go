// Package metric provides Prometheus-based metrics collection and HTTP
// exposure for the mapping engine.
//
// The package offers a centralized registry managing both core engine
// metrics (resource operations, triple writes, validation failures,
// identifier generation) and custom application metrics. It includes an
// HTTP server exposing metrics in Prometheus format.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: Engine-level metrics automatically registered (Metrics type)
//  2. Registry: Extensible registration for application metrics (Registrar interface)
//  3. HTTP Server: Metrics endpoint with a health check (Server type)
//
// # Basic Usage
//
// Setting up metrics collection and the HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil && err != http.ErrServerClosed {
//	        log.Fatal(err)
//	    }
//	}()
//	defer server.Stop()
//
// Record engine activity through the core metrics:
//
//	m := registry.CoreMetrics()
//	m.RecordResourceOp("Person", "save")
//	m.RecordTriples("Person", 4, 1)
//
// All metrics use the "semmodel" namespace.
package metric
