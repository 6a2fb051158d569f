package source

import (
	"fmt"

	"github.com/google/gousb"

	"github.com/doismellburning/gnssrecv/internal/gnsserr"
	"github.com/doismellburning/gnssrecv/internal/iq"
	"github.com/doismellburning/gnssrecv/internal/logging"
)

// Standard RTL2832U vendor/product ID and the bulk-in endpoint
// librtlsdr streams samples on.
const (
	rtlVendorID   = gousb.ID(0x0bda)
	rtlProductID  = gousb.ID(0x2838)
	rtlBulkInAddr = 0x81
	rtlConfigNum  = 1
	rtlInterface  = 0
	rtlAltSetting = 0

	rtlStreamPacketSize  = 16 * 1024
	rtlStreamPacketCount = 8
)

// USBSource reads IQ samples directly off a locally attached RTL-SDR
// tuner (`-d`, spec.md §6) via bulk USB transfers.
type USBSource struct {
	SampleRateHz float64
	FrequencyHz  uint32
	GainTenthDb  int32 // negative means AGC
	BiasTee      bool  // powers an external LNA over the antenna feed
}

type usbHandle struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	cfg    *gousb.Config
	intf   *gousb.Interface
	stream *gousb.ReadStream
}

func (h *usbHandle) Read(p []byte) (int, error) {
	return h.stream.Read(p)
}

func (h *usbHandle) Close() error {
	if h.stream != nil {
		h.stream.Close()
	}
	if h.intf != nil {
		h.intf.Close()
	}
	if h.cfg != nil {
		h.cfg.Close()
	}
	if h.dev != nil {
		h.dev.Close()
	}
	if h.ctx != nil {
		h.ctx.Close()
	}
	return nil
}

// Open claims the tuner's bulk endpoint and applies the requested
// frequency/gain, the way the teacher's device layer treats every
// input source as "open once, read a stream of bytes until told to
// stop" (src/audio.go).
func (s USBSource) Open() (Stream, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(rtlVendorID, rtlProductID)
	if err != nil || dev == nil {
		ctx.Close()
		return Stream{}, fmt.Errorf("%w: rtl-sdr usb: %v", gnsserr.ErrDeviceUnavailable, err)
	}

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return Stream{}, fmt.Errorf("%w: rtl-sdr usb auto-detach: %v", gnsserr.ErrDeviceUnavailable, err)
	}

	cfg, err := dev.Config(rtlConfigNum)
	if err != nil {
		dev.Close()
		ctx.Close()
		return Stream{}, fmt.Errorf("%w: rtl-sdr usb config: %v", gnsserr.ErrDeviceUnavailable, err)
	}

	intf, err := cfg.Interface(rtlInterface, rtlAltSetting)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return Stream{}, fmt.Errorf("%w: rtl-sdr usb interface: %v", gnsserr.ErrDeviceUnavailable, err)
	}

	ep, err := intf.InEndpoint(rtlBulkInAddr)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return Stream{}, fmt.Errorf("%w: rtl-sdr usb endpoint: %v", gnsserr.ErrDeviceUnavailable, err)
	}

	stream, err := ep.NewStream(rtlStreamPacketSize, rtlStreamPacketCount)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return Stream{}, fmt.Errorf("%w: rtl-sdr usb stream: %v", gnsserr.ErrDeviceUnavailable, err)
	}

	applyTunerControls(dev, s)

	h := &usbHandle{ctx: ctx, dev: dev, cfg: cfg, intf: intf, stream: stream}
	return Stream{
		Reader:       h,
		Closer:       h,
		Encoding:     iq.EncodingU8,
		SampleRateHz: s.SampleRateHz,
	}, nil
}

// applyTunerControls issues the vendor control transfers librtlsdr
// uses for frequency, sample rate, and gain. Failures here are
// logged, not fatal: the tuner keeps its last (or power-on default)
// settings rather than aborting acquisition.
func applyTunerControls(dev *gousb.Device, s USBSource) {
	const (
		reqTypeVendorOut = 0x40
		reqSetFrequency  = 0x01
		reqSetSampleRate = 0x02
		reqSetGainMode   = 0x03
		reqSetGain       = 0x04
		reqSetAGCMode    = 0x08
		reqSetBiasTee    = 0x0E
	)

	send := func(request uint8, value, index uint16) {
		if _, err := dev.Control(reqTypeVendorOut, request, value, index, nil); err != nil {
			logging.Warnf("source: rtl-sdr usb control request 0x%02x: %v", request, err)
		}
	}

	if s.FrequencyHz != 0 {
		send(reqSetFrequency, uint16(s.FrequencyHz&0xFFFF), uint16(s.FrequencyHz>>16))
	}
	if s.SampleRateHz != 0 {
		rate := uint32(s.SampleRateHz)
		send(reqSetSampleRate, uint16(rate&0xFFFF), uint16(rate>>16))
	}
	if s.GainTenthDb < 0 {
		send(reqSetGainMode, 0, 0)
		send(reqSetAGCMode, 1, 0)
	} else {
		send(reqSetGainMode, 1, 0)
		send(reqSetAGCMode, 0, 0)
		send(reqSetGain, uint16(s.GainTenthDb), 0)
	}
	if s.BiasTee {
		send(reqSetBiasTee, 1, 0)
	}
}
