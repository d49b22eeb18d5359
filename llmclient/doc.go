// Package llmclient provides the model client used by the agent loop. It
// wraps the gollm library (github.com/teilomillet/gollm) behind a small
// interface that accepts an ordered sequence of role/content messages and
// returns a single text completion.
//
// The package carries its own error taxonomy so callers can distinguish
// retryable failures (rate limits, server errors, timeouts) from permanent
// ones (bad credentials, oversized context), a retry helper with exponential
// backoff, and a structured JSONL call log.
//
// # Quick Start
//
//	client, err := llmclient.NewGollmClient("openai", "gpt-5.2-mini",
//	    llmclient.WithStopToken("----END_FUNCTION_CALL----"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	text, err := client.Generate(ctx, []llmclient.Message{
//	    {Role: llmclient.RoleSystem, Content: "You are a coding agent."},
//	    {Role: llmclient.RoleUser, Content: "List the files."},
//	})
package llmclient
