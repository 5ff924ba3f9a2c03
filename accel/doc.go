// Package accel ingests raw accelerometer logs into per-axis sample
// sequences with a known, uniform sample rate.
//
// Logs are CSV streams with a header row naming a time column and one or
// more acceleration columns (accel_x, accel_y, accel_z). Timestamps must be
// strictly increasing; acceleration units are whatever the device recorded
// and are propagated unchanged. When the inter-sample intervals are too
// irregular for spectral estimation, the samples are resampled onto a
// uniform grid by linear interpolation.
package accel
