// Package interaction implements the request/response and push-event model
// of the hub protocol on top of package wire.
//
// # Client Usage
//
//	client := interaction.NewClient(conn)
//	go conn.Serve(client.HandleFrame)
//
//	var step flow.Step
//	err := client.Call(ctx, wire.CmdFlowCreate, params, &step)
//
//	sub, err := client.Subscribe(ctx, wire.CmdAddNode, params,
//	    func(name string, payload cbor.RawMessage) { ... })
//	defer sub.Release()
//
// # Server Usage
//
//	server := interaction.NewServer(logger)
//	server.Handle(wire.CmdFlowFetch, fetchHandler)
//	server.HandleStream(wire.CmdAddNode, addNodeHandler)
//
//	session := server.Attach(conn)
//	conn.Serve(func(data []byte) { server.HandleFrame(ctx, session, data) })
//	server.Detach(session)
//
// # Subscriptions
//
// A subscribing command answers with a subscription id; every later event
// carries it. Events are delivered to the client handler one at a time, in
// arrival order, on a dedicated dispatcher goroutine. Subscriptions are
// connection-scoped: the hub drops them on unsubscribe or disconnect, the
// client drops events for subscriptions it already released.
package interaction
