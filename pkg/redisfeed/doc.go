// Package redisfeed feeds pipelines from Redis lists.
//
// A Consumer pops JSON-encoded jobs from a queue with BLPop, decodes each
// into the pipeline's input type, and processes it. Present outcomes are
// pushed to the result queue, captured failures and undecodable payloads to
// the error queue, and discarded (absent) outcomes are dropped:
//
//	consumer, err := redisfeed.New(redisfeed.Config{
//		Client:      rdb,
//		Queue:       "orders",
//		ResultQueue: "orders:done",
//		ErrorQueue:  "orders:dead",
//	}, ingest)
//	if err != nil {
//		return err
//	}
//	go consumer.Run(ctx)
//
// Run blocks until the context is done. Per-queue job counts by terminal
// status are recorded when Config.Metrics is set.
package redisfeed
