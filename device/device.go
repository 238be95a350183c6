// Package device mirrors the flat buffer of quadrature data into OCCA device
// memory so kernels can read and update per-point state in place.
package device

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/notargets/gocca"

	"github.com/notargets/qdata/quadrature"
)

var (
	ErrNoDevice = errors.New("device: no OCCA backend available")
	ErrFreed    = errors.New("device: mirror already freed")
)

// Backends are the device properties Open tries when none are given,
// parallel backends first
var Backends = []string{
	`{"mode": "OpenMP"}`,
	`{"mode": "CUDA", "device_id": 0}`,
	`{"mode": "Serial"}`,
}

// Open returns the first device that can be created from props, or from
// Backends when props is empty
func Open(props ...string) (*gocca.OCCADevice, error) {
	if len(props) == 0 {
		props = Backends
	}
	var errs []error
	for _, p := range props {
		dev, err := gocca.NewDevice(p)
		if err == nil {
			return dev, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p, err))
	}
	return nil, fmt.Errorf("%w: %v", ErrNoDevice, errors.Join(errs...))
}

// Mirror owns a device allocation sized to one store's raw buffer. The
// store's element-major, point-minor word order is preserved on the device.
// Mirroring None allocates nothing and every copy is a no-op.
type Mirror struct {
	store quadrature.Store
	mem   *gocca.OCCAMemory
	bytes int64
	freed bool
}

// NewMirror allocates device memory for s and fills it from the host
func NewMirror(dev *gocca.OCCADevice, s quadrature.Store) (*Mirror, error) {
	s = quadrature.OrNone(s)
	m := &Mirror{store: s}
	raw := s.Raw()
	if len(raw) == 0 {
		return m, nil
	}
	if dev == nil {
		return nil, fmt.Errorf("%w: nil device", ErrNoDevice)
	}
	m.bytes = int64(len(raw) * 8)
	m.mem = dev.Malloc(m.bytes, unsafe.Pointer(&raw[0]), nil)
	if m.mem == nil {
		return nil, fmt.Errorf("device: allocation of %d bytes failed", m.bytes)
	}
	return m, nil
}

// Bytes is the size of the device allocation
func (m *Mirror) Bytes() int64 {
	return m.bytes
}

// Memory returns the device allocation, nil when mirroring None
func (m *Mirror) Memory() *gocca.OCCAMemory {
	return m.mem
}

// Upload copies the host buffer to the device
func (m *Mirror) Upload() error {
	if m.freed {
		return ErrFreed
	}
	if m.mem == nil {
		return nil
	}
	raw := m.store.Raw()
	m.mem.CopyFrom(unsafe.Pointer(&raw[0]), m.bytes)
	return nil
}

// Download copies the device allocation back into the host buffer
func (m *Mirror) Download() error {
	if m.freed {
		return ErrFreed
	}
	if m.mem == nil {
		return nil
	}
	raw := m.store.Raw()
	m.mem.CopyTo(unsafe.Pointer(&raw[0]), m.bytes)
	return nil
}

// Free releases the device allocation
func (m *Mirror) Free() {
	if m.freed {
		return
	}
	if m.mem != nil {
		m.mem.Free()
		m.mem = nil
	}
	m.freed = true
}
