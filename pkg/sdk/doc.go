// Package sdk provides an embedded Go client for the poshan retrieval
// pipeline, wiring the classifier, embedding cache, and vector index
// directly over Redis without running the HTTP server.
//
//	client, _ := sdk.New(ctx,
//	    sdk.WithRedis("localhost:6379", ""),
//	    sdk.WithOpenAIEmbedder(apiKey, "", "text-embedding-3-small", 1536),
//	)
//	defer client.Close()
//
//	_, _ = client.Ingest(ctx, docs)
//	res, _ := client.Query(ctx, "high protein vegetarian breakfast", nil)
package sdk
