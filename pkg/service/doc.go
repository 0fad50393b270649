// Package service runs a simulated hub.
//
// A Hub serves two simulated backends over the interaction protocol:
//
// # FlowManager
//
// FlowManager executes data entry flows described in a scenario file. Flow
// state lives in an in-memory store and expires when a flow sits idle.
// Progress and external steps advance on their own after a delay and notify
// subscribers with data_entry_flow_progressed. Form steps check required
// fields and optional regex validators; menu steps route on next_step_id.
//
// # InclusionSimulator
//
// InclusionSimulator plays the role of a mesh controller per entry. Each
// add_node request streams the event script of the chosen strategy: S2
// attempts ask for the PIN of a freshly generated DSK and for a security
// class grant, S0 and insecure attempts go straight to registration. A
// scenario can slow the script down, make it fail after a named event and
// enable SmartStart provisioning.
//
// Example usage:
//
//	scenario, err := service.LoadScenario("scenario.yaml")
//	if err != nil {
//	    return err
//	}
//	hub, err := service.NewHub(scenario, service.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	if err := hub.Start(ctx); err != nil {
//	    return err
//	}
//	defer hub.Stop()
package service
