// Package reactloop implements a reason-then-act control loop for an
// autonomous software-engineering agent.
//
// An Agent holds a Conversation of turns, sends it to a model through
// llmclient.Client, parses the trailing textual function call from the
// response, dispatches it against a tool Registry, and appends the
// observation as the next user turn. The loop repeats until the model
// calls finish and validation passes, or the round budget is exhausted.
//
// Recoverable failures stay inside the loop: a malformed call, an unknown
// action, or a failing tool all become observations the model can react
// to. Only a model or environment failure aborts Run.
//
// Edits pass through an EditGate that warns on high-blast-radius changes
// and blocks completion while a post-edit syntax check is failing. A
// finish call is also rejected while the working tree has no changes, so
// every successful session ends with a real patch.
//
// Basic usage:
//
//	client, err := llmclient.NewGollmClient("openai", "gpt-4o-mini",
//	    llmclient.WithStopToken("----END_FUNCTION_CALL----"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	env := reactloop.NewLocalEnvironment("/path/to/repo")
//	agent := reactloop.NewAgent(client, env, reactloop.WithRepoName("myrepo"))
//	result, err := agent.Run(ctx, "Fix the off-by-one error in pagination.")
package reactloop
