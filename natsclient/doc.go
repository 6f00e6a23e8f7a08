// Package natsclient manages the NATS connection backing the KV triple
// store.
//
// Client wraps a nats.Conn with reconnect handling, structured logging
// of connection events and JetStream access. KeyValue creates or binds
// the named bucket, so deployments need no out-of-band provisioning
// step.
//
//	client, err := natsclient.New("nats://localhost:4222",
//	    natsclient.WithName("semmodel"))
//	if err != nil { ... }
//	if err := client.Connect(ctx); err != nil { ... }
//	defer client.Close(ctx)
//
//	bucket, err := client.KeyValue(ctx, "triples")
package natsclient
