// Package remote binds the flow and inclusion state machines to a hub.
//
// FlowAPI implements flow.API and InclusionService implements
// inclusion.Service on top of an interaction client. Client owns the
// framed connection that feeds that interaction client.
//
//	c, err := remote.Dial(ctx, "hub.local:8445", remote.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	session := flow.NewSession(c.Flows(), host, flow.DefaultConfig())
package remote
