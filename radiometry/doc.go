/*
Package radiometry converts raw camera response into reflectance using a
reference panel of known reflectance placed in the frame.

Panel statistics are the mean of the panel pixels of each channel, excluding
black (masked out) pixels and pixels above a per channel saturation
threshold, so glare on the panel does not bias the calibration.  Each plant
image channel is then scaled by

	(value / panelMean) * reflectance * 255

and clipped to the 0-255 range.
*/
package radiometry
