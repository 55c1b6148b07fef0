// Package layers draws the transparent rasters that sit on top of the base map.
//
// Each function returns a fresh canvas-sized (or sprite-sized) image that the
// compositor owns for the duration of one render:
//
//   - [Dome]: translucent 2.5D dome with a soft glowing rim
//   - [Beacon]: the beacon sprite scaled to the dome and its paste position
//   - [SunGlare]: blurred highlight mask used to brighten the dome's shoulder
//
// Vector drawing uses fogleman/gg, scaling and blurring use
// disintegration/imaging.
package layers
