// Package panel serves the LedLink control page.
//
// The page is a single HTML file embedded with go:embed. It shows the LED
// state, signal strength, uptime and the recent client list, and drives the
// LED through /led?state=. It listens for pushed updates on /ws and falls
// back to polling /status and /clients every five seconds.
package panel
