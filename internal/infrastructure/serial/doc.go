// Package serial talks to the LED board over a USB serial line.
//
// The board speaks newline-delimited JSON: each command is one JSON object
// followed by '\n', and the board answers with one JSON line. The link
// serialises commands so replies are never interleaved.
//
//	link, err := serial.Open(cfg.Serial)
//	defer link.Close()
//	reply, err := link.Command(ctx, map[string]string{"led": "on"})
//
// Thread Safety: All methods are safe for concurrent use.
package serial
