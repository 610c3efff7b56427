// Package device models the three Vantage console variants (Pro, Pro2,
// Vue) as a single Device type dispatching through a capability table,
// rather than a type per variant.
package device

import (
	"context"

	"github.com/daviswx/vantage-driver/pkg/binparse"
	"github.com/daviswx/vantage-driver/pkg/protocol"
	"github.com/daviswx/vantage-driver/pkg/transport"
	"github.com/daviswx/vantage-driver/pkg/vanterr"
)

// Model identifies which console variant a Device speaks to.
type Model int

const (
	ModelPro Model = iota
	ModelVue
	ModelPro2
)

func (m Model) String() string {
	switch m {
	case ModelPro:
		return "Pro"
	case ModelVue:
		return "Vue"
	case ModelPro2:
		return "Pro2"
	default:
		return "unknown"
	}
}

type capability int

const (
	capWakeValidate capability = iota
	capLOOP1
	capHILOW
	capFirmwareVersion
	capLOOP2
	capRichMerge
)

var capabilityTable = map[Model]map[capability]bool{
	ModelPro: {
		capWakeValidate: true,
		capLOOP1:        true,
		capHILOW:        true,
	},
	ModelVue: {
		capWakeValidate:    true,
		capLOOP1:           true,
		capHILOW:           true,
		capFirmwareVersion: true,
	},
	ModelPro2: {
		capWakeValidate:    true,
		capLOOP1:           true,
		capHILOW:           true,
		capFirmwareVersion: true,
		capLOOP2:           true,
		capRichMerge:       true,
	},
}

func (m Model) supports(c capability) bool {
	return capabilityTable[m][c]
}

// richMergeDropLOOP1 lists the LOOP1 top-level keys dropped before merging
// into a Pro2's rich reading, because LOOP2 carries a more complete or
// differently-shaped version of each.
var richMergeDropLOOP1 = map[string]bool{
	"alarms":            true,
	"packageType":       true,
	"nextArchiveRecord": true,
	"rain":              true,
}

// richMergeDropLOOP2 lists the LOOP2 top-level keys dropped before merging,
// for the symmetric reason.
var richMergeDropLOOP2 = map[string]bool{
	"et":            true,
	"packageType":   true,
	"graphPointers": true,
	"humidity":      true,
	"temperature":   true,
	"rain":          true,
}

// Device wraps a protocol.Engine with model-specific capability checks and
// the Pro2 rich-merge reading.
type Device struct {
	*protocol.Engine
	Model Model
}

// New builds a Device over t, speaking the given protocol timing cfg.
func New(model Model, t transport.ByteTransport, cfg protocol.Config) *Device {
	return &Device{Engine: protocol.New(t, cfg), Model: model}
}

func (d *Device) requireCapability(c capability, op string) error {
	if !d.Model.supports(c) {
		return vanterr.New(vanterr.UnsupportedDeviceModel, op)
	}
	return nil
}

// GetFirmwareVersion is unsupported on ModelPro.
func (d *Device) GetFirmwareVersion(ctx context.Context) (string, error) {
	if err := d.requireCapability(capFirmwareVersion, "device.GetFirmwareVersion"); err != nil {
		return "", err
	}
	return d.Engine.GetFirmwareVersion(ctx)
}

// GetLOOP2 is unsupported on ModelPro and ModelVue.
func (d *Device) GetLOOP2(ctx context.Context) (binparse.Record, error) {
	if err := d.requireCapability(capLOOP2, "device.GetLOOP2"); err != nil {
		return nil, err
	}
	return d.Engine.GetLOOP2(ctx)
}

// GetRichRealtimeData is the Pro2-only deep merge of a LOOP1 and LOOP2
// reading: LOOP2 wins on conflicting top-level keys, and the two packets'
// rain substructures are merged (LOOP2 wins) into a single top-level rain.
func (d *Device) GetRichRealtimeData(ctx context.Context) (binparse.Record, error) {
	if err := d.requireCapability(capRichMerge, "device.GetRichRealtimeData"); err != nil {
		return nil, err
	}

	loop1, err := d.Engine.GetLOOP1(ctx)
	if err != nil {
		return nil, err
	}
	loop2, err := d.Engine.GetLOOP2(ctx)
	if err != nil {
		return nil, err
	}

	merged := make(binparse.Record)
	for k, v := range loop1 {
		if richMergeDropLOOP1[k] {
			continue
		}
		merged[k] = v
	}
	for k, v := range loop2 {
		if richMergeDropLOOP2[k] {
			continue
		}
		merged[k] = v
	}

	rain1, _ := loop1["rain"].(binparse.Record)
	rain2, _ := loop2["rain"].(binparse.Record)
	rain := make(binparse.Record, len(rain1)+len(rain2))
	for k, v := range rain1 {
		rain[k] = v
	}
	for k, v := range rain2 {
		rain[k] = v
	}
	merged["rain"] = rain

	return merged, nil
}
