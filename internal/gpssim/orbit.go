package gpssim

import (
	"math"

	odeint "github.com/Daniel-M/odeint/float64"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// SpeedOfLight in m/s (WGS-84).
	SpeedOfLight = 2.99792458e8
	// EarthMu is the Earth's gravitational parameter in m^3/s^2.
	EarthMu = 3.986004418e14
	// EarthRadius is the WGS-84 equatorial radius in metres.
	EarthRadius = 6378137.0
	// GPSOrbitRadius is the nominal GPS semi-major axis in metres.
	GPSOrbitRadius = 26559700.0
	// GPSInclination of the orbital plane in radians.
	GPSInclination = 55 * math.Pi / 180
)

// orbit propagates a two-body satellite state [x y z vx vy vz] with the
// midpoint integrator.
type orbit struct {
	state      []float64
	integrator odeint.Midpoint
}

func twoBody(x []float64, _ []float64) []float64 {
	dxdt := make([]float64, len(x))
	r := math.Sqrt(x[0]*x[0] + x[1]*x[1] + x[2]*x[2])
	k := -EarthMu / (r * r * r)
	dxdt[0] = x[3]
	dxdt[1] = x[4]
	dxdt[2] = x[5]
	dxdt[3] = k * x[0]
	dxdt[4] = k * x[1]
	dxdt[5] = k * x[2]
	return dxdt
}

// newOrbit places a circular GPS orbit so the satellite is at the zenith of
// the ground point (EarthRadius, 0, 0) after passTime seconds.
func newOrbit(step, passTime float64) (*orbit, error) {
	speed := math.Sqrt(EarthMu / GPSOrbitRadius)
	theta := -speed / GPSOrbitRadius * passTime
	plane := r3.Vec{Y: math.Cos(GPSInclination), Z: math.Sin(GPSInclination)}

	pos := r3.Add(r3.Scale(GPSOrbitRadius*math.Cos(theta), r3.Vec{X: 1}), r3.Scale(GPSOrbitRadius*math.Sin(theta), plane))
	vel := r3.Add(r3.Scale(-speed*math.Sin(theta), r3.Vec{X: 1}), r3.Scale(speed*math.Cos(theta), plane))

	o := &orbit{state: []float64{pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z}}
	system := odeint.NewSystem(o.state, nil, twoBody)
	if err := o.integrator.Set(step, *system); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *orbit) position() r3.Vec { return r3.Vec{X: o.state[0], Y: o.state[1], Z: o.state[2]} }
func (o *orbit) velocity() r3.Vec { return r3.Vec{X: o.state[3], Y: o.state[4], Z: o.state[5]} }

func (o *orbit) advance() error {
	next, err := o.integrator.Step()
	if err != nil {
		return err
	}
	o.state = append(o.state[:0:0], next...)
	return nil
}

// receiver is constrained to the local vertical through the ground point.
type receiver struct {
	altitude float64
	speed    float64
}

var (
	ground = r3.Vec{X: EarthRadius}
	up     = r3.Unit(ground)
)

func (rx receiver) position() r3.Vec { return r3.Add(ground, r3.Scale(rx.altitude, up)) }
func (rx receiver) velocity() r3.Vec { return r3.Scale(rx.speed, up) }

// doppler returns the fractional Doppler shift seen by rx from a satellite.
func doppler(rx receiver, satPos, satVel r3.Vec) float64 {
	lineOfSight := r3.Unit(r3.Sub(satPos, rx.position()))
	return r3.Dot(r3.Sub(satVel, rx.velocity()), lineOfSight) / SpeedOfLight
}
