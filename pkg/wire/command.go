package wire

// Command names a request handled by the hub.
type Command string

// Flow commands.
const (
	CmdFlowCreate              Command = "flow/create"
	CmdFlowFetch               Command = "flow/fetch"
	CmdFlowStep                Command = "flow/step"
	CmdFlowDelete              Command = "flow/delete"
	CmdFlowInProgress          Command = "flow/in_progress"
	CmdFlowSubscribeProgressed Command = "flow/subscribe_progressed"
)

// Inclusion commands.
const (
	CmdAddNode                 Command = "inclusion/add_node"
	CmdStopInclusion           Command = "inclusion/stop"
	CmdValidateDSKAndEnterPIN  Command = "inclusion/validate_dsk_and_enter_pin"
	CmdGrantSecurityClasses    Command = "inclusion/grant_security_classes"
	CmdProvisionSmartStartNode Command = "inclusion/provision_smart_start_node"
	CmdParseQRCodeString       Command = "inclusion/parse_qr_code_string"
	CmdSupportsFeature         Command = "inclusion/supports_feature"
)

// CmdUnsubscribe releases a subscription opened by a subscribing command.
const CmdUnsubscribe Command = "unsubscribe"

// EventFlowProgressed is pushed when an external or progress step advanced.
const EventFlowProgressed = "data_entry_flow_progressed"

// String returns the command name.
func (c Command) String() string {
	return string(c)
}

// IsSubscribing reports whether the command opens a subscription.
func (c Command) IsSubscribing() bool {
	return c == CmdFlowSubscribeProgressed || c == CmdAddNode
}
