// Package streamdeck implements the host side of the Stream Deck plugin SDK:
// launch parameters, the WebSocket connection back to the host, inbound event
// decoding and dispatch, and the outbound commands a plugin may send.
package streamdeck

// Event is the "event" field of every frame exchanged with the host.
type Event string

// Events sent by the host to the plugin.
const (
	EventKeyDown                    Event = "keyDown"
	EventKeyUp                      Event = "keyUp"
	EventWillAppear                 Event = "willAppear"
	EventWillDisappear              Event = "willDisappear"
	EventDeviceDidConnect           Event = "deviceDidConnect"
	EventDeviceDidDisconnect        Event = "deviceDidDisconnect"
	EventApplicationDidLaunch       Event = "applicationDidLaunch"
	EventApplicationDidTerminate    Event = "applicationDidTerminate"
	EventSendToPlugin               Event = "sendToPlugin"
	EventDidReceiveSettings         Event = "didReceiveSettings"
	EventDidReceiveGlobalSettings   Event = "didReceiveGlobalSettings"
	EventTitleParametersDidChange   Event = "titleParametersDidChange"
	EventPropertyInspectorDidAppear Event = "propertyInspectorDidAppear"
	EventPropertyInspectorDidHide   Event = "propertyInspectorDidDisappear"
	EventSystemDidWakeUp            Event = "systemDidWakeUp"
)

// Commands sent by the plugin to the host.
const (
	EventSetTitle                Event = "setTitle"
	EventSetImage                Event = "setImage"
	EventShowAlert               Event = "showAlert"
	EventShowOk                  Event = "showOk"
	EventSetSettings             Event = "setSettings"
	EventGetSettings             Event = "getSettings"
	EventSetState                Event = "setState"
	EventLogMessage              Event = "logMessage"
	EventOpenURL                 Event = "openUrl"
	EventSendToPropertyInspector Event = "sendToPropertyInspector"
)

// Target selects which surface a title applies to.
type Target int

const (
	TargetBoth Target = iota
	TargetHardware
	TargetSoftware
)
