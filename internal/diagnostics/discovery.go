package diagnostics

import (
	"context"

	"github.com/brutella/dnssd"

	"github.com/doismellburning/gnssrecv/internal/logging"
)

// serviceType is the mDNS/DNS-SD service type the diagnostic HTTP
// server is advertised under, the same "_proto._tcp" naming as the
// teacher's own KISS-over-TCP advertisement (src/dns_sd.go).
const serviceType = "_gnssrecv-diag._tcp"

// Advertise announces the diagnostic HTTP server on the LAN so a
// phone or tablet on the same network can find it without typing in
// an IP address, exactly the UX src/dns_sd.go exists to provide for
// KISS TNC discovery. Failures are logged and non-fatal: diagnostics
// remain reachable by IP even if mDNS can't be set up.
func Advertise(name string, port int) {
	if name == "" {
		name = "gnssrecv"
	}

	cfg := dnssd.Config{
		Name: name,
		Type: serviceType,
		Port: port,
	}

	svc, err := dnssd.NewService(cfg)
	if err != nil {
		logging.Warnf("diagnostics: mDNS service setup failed: %v", err)
		return
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		logging.Warnf("diagnostics: mDNS responder setup failed: %v", err)
		return
	}

	if _, err := responder.Add(svc); err != nil {
		logging.Warnf("diagnostics: mDNS add service failed: %v", err)
		return
	}

	logging.Infof("diagnostics: advertising %q on port %d via mDNS", name, port)

	go func() {
		if err := responder.Respond(context.Background()); err != nil {
			logging.Warnf("diagnostics: mDNS responder stopped: %v", err)
		}
	}()
}
