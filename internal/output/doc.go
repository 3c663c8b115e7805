// Package output owns the logical state of the controlled LED.
//
// The Controller is the only writer of the state. It applies on/off/toggle
// commands through a Driver that reaches the hardware:
//
//   - MemoryDriver keeps the state in process (no hardware attached)
//   - MQTTDriver publishes the command to a board subscribed over MQTT
//   - SerialDriver sends a JSON line to a board on a USB serial port
//
// A driver failure leaves the state unchanged.
package output
