// Package engine assembles a running mapping engine from configuration.
//
// Engine wires the pieces the rest of the module provides: it builds
// model definitions from the configured documents, registers them,
// selects a triple store backend (in-process memory or a NATS JetStream
// KV bucket), and hands back a ready Mapper. When metrics are enabled
// it also starts a Prometheus endpoint.
//
// # Usage
//
//	cfg, err := config.Load("semmodel.yaml")
//	if err != nil {
//		return err
//	}
//	eng, err := engine.New(ctx, cfg, filepath.Dir("semmodel.yaml"))
//	if err != nil {
//		return err
//	}
//	defer eng.Close(ctx)
//
//	person, err := eng.Mapper.New(ctx, "Person")
//
// Close releases the store connection and stops the metrics endpoint.
// Resources obtained from the mapper must not be saved after Close.
package engine
