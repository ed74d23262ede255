package main

import (
	"context"
	"fmt"
	stdlog "log"
	"math"
	"time"

	"github.com/bacnode-protocol/bacnode-go/pkg/bacnet"
	"github.com/bacnode-protocol/bacnode-go/pkg/transport"
)

// simNetwork is the synthetic BACnet internetwork the node runs against in
// simulation mode.
type simNetwork struct {
	net     *transport.SimNetwork
	Devices []*transport.SimDevice
}

// newSimNetwork builds a small site: an HVAC controller with temperature
// objects, a lighting controller with binary outputs, and a sensor hub.
func newSimNetwork() *simNetwork {
	net := transport.NewSimNetwork()

	hvac := transport.NewSimDevice(1001, "HVAC Controller")
	hvac.SetObject(bacnet.ObjectRecord{
		ID: bacnet.ObjectIdentifier{Type: bacnet.ObjectAnalogValue, Instance: 1},
		Properties: bacnet.PropertyMap{
			bacnet.PropObjectName:   "zone-1-setpoint",
			bacnet.PropPresentValue: 21.0,
			bacnet.PropUnits:        "degrees-celsius",
		},
	})
	hvac.SetObject(bacnet.ObjectRecord{
		ID: bacnet.ObjectIdentifier{Type: bacnet.ObjectAnalogInput, Instance: 1},
		Properties: bacnet.PropertyMap{
			bacnet.PropObjectName:   "zone-1-temperature",
			bacnet.PropPresentValue: 20.5,
			bacnet.PropUnits:        "degrees-celsius",
		},
	})

	lighting := transport.NewSimDevice(1002, "Lighting Controller")
	for i := uint32(1); i <= 4; i++ {
		lighting.SetObject(bacnet.ObjectRecord{
			ID: bacnet.ObjectIdentifier{Type: bacnet.ObjectBinaryOutput, Instance: i},
			Properties: bacnet.PropertyMap{
				bacnet.PropObjectName:   fmt.Sprintf("relay-%d", i),
				bacnet.PropPresentValue: false,
			},
		})
	}

	sensors := transport.NewSimDevice(1003, "Sensor Hub")
	sensors.SetObject(bacnet.ObjectRecord{
		ID: bacnet.ObjectIdentifier{Type: bacnet.ObjectAnalogInput, Instance: 10},
		Properties: bacnet.PropertyMap{
			bacnet.PropObjectName:   "outside-temperature",
			bacnet.PropPresentValue: 12.0,
			bacnet.PropUnits:        "degrees-celsius",
		},
	})

	devices := []*transport.SimDevice{hvac, lighting, sensors}
	for _, d := range devices {
		net.AddDevice(d)
	}
	return &simNetwork{net: net, Devices: devices}
}

// runSimulation drifts the synthetic temperature readings so COV
// subscriptions have something to report.
func runSimulation(ctx context.Context, sim *simNetwork) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick++
			zone := 20.5 + math.Sin(float64(tick)/6)*1.5
			outside := 12.0 + math.Sin(float64(tick)/20)*4

			hvac := sim.Devices[0]
			hvac.UpdateProperty(
				bacnet.ObjectIdentifier{Type: bacnet.ObjectAnalogInput, Instance: 1},
				bacnet.PropPresentValue, math.Round(zone*10)/10,
			)
			hub := sim.Devices[2]
			hub.UpdateProperty(
				bacnet.ObjectIdentifier{Type: bacnet.ObjectAnalogInput, Instance: 10},
				bacnet.PropPresentValue, math.Round(outside*10)/10,
			)

			if tick%12 == 0 {
				stdlog.Printf("[SIM] zone %.1f C, outside %.1f C", zone, outside)
			}
		}
	}
}
