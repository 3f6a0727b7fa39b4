// Package color converts between the Hue bridge's native hue/saturation/
// brightness scale, degree/percent HSV, and 8-bit RGB.
//
// Scales:
//
//	HSB (bridge): hue 0..65535, sat 0..255, bri 0..255
//	HSV:          hue 0..360 degrees, sat 0..100, val 0..100
//	RGB:          each channel 0..255
package color

import "math"

const (
	hueMax    = 65535.0
	channel   = 255.0
	degrees   = 360.0
	percent   = 100.0
	sectorDeg = 60.0
)

// HSV is a colour in degrees and percentages.
type HSV struct {
	H, S, V float64
}

// HSB is a colour on the bridge's native scale.
type HSB struct {
	Hue, Sat, Bri float64
}

// HSBToHSV rescales bridge values to degrees and percentages.
func HSBToHSV(c HSB) HSV {
	return HSV{
		H: c.Hue * degrees / hueMax,
		S: c.Sat * percent / channel,
		V: c.Bri * percent / channel,
	}
}

// HSVToHSB is the inverse of HSBToHSV.
func HSVToHSB(c HSV) HSB {
	return HSB{
		Hue: c.H * hueMax / degrees,
		Sat: c.S * channel / percent,
		Bri: c.V * channel / percent,
	}
}

// RGBToHSV converts 8-bit channels to HSV. Achromatic inputs get hue 0.
func RGBToHSV(r, g, b uint8) HSV {
	rf, gf, bf := float64(r)/channel, float64(g)/channel, float64(b)/channel

	maxC := math.Max(rf, math.Max(gf, bf))
	minC := math.Min(rf, math.Min(gf, bf))
	delta := maxC - minC

	var h float64
	if delta != 0 {
		switch maxC {
		case rf:
			h = math.Mod((gf-bf)/delta, 6)
		case gf:
			h = (bf-rf)/delta + 2
		default:
			h = (rf-gf)/delta + 4
		}
		h *= sectorDeg
		if h < 0 {
			h += degrees
		}
	}

	var s float64
	if maxC != 0 {
		s = delta / maxC
	}

	return HSV{H: h, S: s * percent, V: maxC * percent}
}

// HSVToRGB converts HSV to 8-bit channels. Channels are truncated, not rounded.
func HSVToRGB(c HSV) (r, g, b uint8) {
	s := c.S / percent
	v := c.V / percent

	sector := math.Floor(c.H / sectorDeg)
	f := c.H/sectorDeg - sector
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var rf, gf, bf float64
	switch int(sector) % 6 {
	case 0:
		rf, gf, bf = v, t, p
	case 1:
		rf, gf, bf = q, v, p
	case 2:
		rf, gf, bf = p, v, t
	case 3:
		rf, gf, bf = p, q, v
	case 4:
		rf, gf, bf = t, p, v
	default:
		rf, gf, bf = v, p, q
	}

	return toChannel(rf), toChannel(gf), toChannel(bf)
}

// toChannel truncates x*255 into a byte, saturating outside [0, 1].
func toChannel(x float64) uint8 {
	v := x * channel
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= channel:
		return 255
	default:
		return uint8(v)
	}
}
