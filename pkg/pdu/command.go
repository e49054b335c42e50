package pdu

// Command is the kind of a PDU.
type Command uint8

const (
	CommandNone Command = iota
	CommandGetRequest
	CommandGetResponse
	CommandSetRequest
	CommandSetResponse
	CommandMethodRequest
	CommandMethodResponse
	CommandSnrm
	CommandUa
	CommandDisconnectRequest
	CommandDisconnectMode
)

// commandElements maps commands to their document element names.
var commandElements = map[Command]string{
	CommandGetRequest:        "GetRequest",
	CommandGetResponse:       "GetResponse",
	CommandSetRequest:        "SetRequest",
	CommandSetResponse:       "SetResponse",
	CommandMethodRequest:     "ActionRequest",
	CommandMethodResponse:    "ActionResponse",
	CommandSnrm:              "Snrm",
	CommandUa:                "Ua",
	CommandDisconnectRequest: "DisconnectRequest",
	CommandDisconnectMode:    "DisconnectMode",
}

// String returns the element name of the command.
func (c Command) String() string {
	if s, ok := commandElements[c]; ok {
		return s
	}
	return "None"
}

// CommandOf resolves an element name to its command.
func CommandOf(element string) (Command, bool) {
	for c, name := range commandElements {
		if name == element {
			return c, true
		}
	}
	return CommandNone, false
}

// IsRequest reports whether the command is sent by the client.
func (c Command) IsRequest() bool {
	switch c {
	case CommandGetRequest, CommandSetRequest, CommandMethodRequest, CommandSnrm, CommandDisconnectRequest:
		return true
	}
	return false
}

// Response returns the command a device answers c with.
func (c Command) Response() Command {
	switch c {
	case CommandGetRequest:
		return CommandGetResponse
	case CommandSetRequest:
		return CommandSetResponse
	case CommandMethodRequest:
		return CommandMethodResponse
	case CommandSnrm:
		return CommandUa
	case CommandDisconnectRequest:
		return CommandDisconnectMode
	}
	return CommandNone
}
